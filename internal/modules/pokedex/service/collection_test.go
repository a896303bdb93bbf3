package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/xerrors"
)

// TestCollection_Load_DuplicateID 测试重复编号时整体失败
func TestCollection_Load_DuplicateID(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Load([]*model.Pokemon{
		makePokemon(1, "bulbasaur", 7, 69, "grass"),
	}))

	err := c.Load([]*model.Pokemon{
		makePokemon(1, "bulbasaur", 7, 69, "grass"),
		makePokemon(1, "clone", 7, 69, "grass"),
	})
	require.Error(t, err)

	// 加载失败时集合保持原状
	assert.Equal(t, 1, c.Len())
}

// TestCollection_Get_NotFound 测试不存在的编号
func TestCollection_Get_NotFound(t *testing.T) {
	c := loadedCollection(3)

	_, err := c.Get(99)
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodePokemonNotFound, appErr.Code)
}

// TestCollection_Edit 测试编辑补丁与修改标记
func TestCollection_Edit(t *testing.T) {
	c := loadedCollection(3)

	name := "renamed"
	height := 42
	entry, err := c.Edit(2, model.EditPatch{
		Name:   &name,
		Height: &height,
		Stats: []model.StatPatch{
			{Name: "attack", BaseStat: 120},
			{Name: "nonexistent", BaseStat: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", entry.Pokemon.Name)
	assert.Equal(t, 42, entry.Pokemon.Height)
	assert.True(t, entry.Modified)

	// 按名称匹配的种族值更新，未知名称被忽略
	assert.Equal(t, 120, entry.Pokemon.Stats[1].BaseStat)
	assert.Equal(t, 45, entry.Pokemon.Stats[0].BaseStat)

	// nil 字段不修改
	weight := entry.Pokemon.Weight
	entry, err = c.Edit(2, model.EditPatch{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", entry.Pokemon.Name)
	assert.Equal(t, weight, entry.Pokemon.Weight)
}

// TestCollection_Lifecycle 测试标记删除、恢复与清除
func TestCollection_Lifecycle(t *testing.T) {
	c := loadedCollection(3)

	entry, err := c.MarkPendingDelete(2)
	require.NoError(t, err)
	assert.Equal(t, model.LifecyclePendingDelete, entry.State)
	assert.Equal(t, 2, c.AvailableCount())

	// 恢复后重新计入可用总数
	entry, err = c.Restore(2)
	require.NoError(t, err)
	assert.Equal(t, model.LifecycleActive, entry.State)
	assert.Equal(t, 3, c.AvailableCount())

	// 清除后编号不再可见
	require.NoError(t, c.Purge(2))
	assert.Equal(t, 2, c.Len())
	_, err = c.Get(2)
	require.Error(t, err)

	// 重复清除报不存在
	err = c.Purge(2)
	require.Error(t, err)
}

// TestCollection_EditDuringPendingDelete 测试删除倒计时中的实体拒绝编辑
func TestCollection_EditDuringPendingDelete(t *testing.T) {
	c := loadedCollection(3)

	_, err := c.MarkPendingDelete(1)
	require.NoError(t, err)

	name := "edited-while-pending"
	_, err = c.Edit(1, model.EditPatch{Name: &name})
	require.Error(t, err)

	appErr, ok := err.(*xerrors.AppError)
	require.True(t, ok)
	assert.Equal(t, xerrors.CodePokemonPendingDelete, appErr.Code)

	// 撤销删除后可以正常编辑
	_, err = c.Restore(1)
	require.NoError(t, err)
	entry, err := c.Edit(1, model.EditPatch{Name: &name})
	require.NoError(t, err)
	assert.True(t, entry.Modified)
	assert.Equal(t, "edited-while-pending", entry.Pokemon.Name)
}

// TestCollection_EditThenPendingDelete 测试先编辑后标记删除时修改标记保留
func TestCollection_EditThenPendingDelete(t *testing.T) {
	c := loadedCollection(3)

	name := "edited-before-delete"
	_, err := c.Edit(1, model.EditPatch{Name: &name})
	require.NoError(t, err)

	entry, err := c.MarkPendingDelete(1)
	require.NoError(t, err)
	assert.Equal(t, model.LifecyclePendingDelete, entry.State)
	assert.True(t, entry.Modified)

	// 恢复后修改仍然保留
	entry, err = c.Restore(1)
	require.NoError(t, err)
	assert.True(t, entry.Modified)
	assert.Equal(t, "edited-before-delete", entry.Pokemon.Name)
}

// TestCollection_ModifiedEntries 测试修改条目的收集
func TestCollection_ModifiedEntries(t *testing.T) {
	c := loadedCollection(5)
	assert.Empty(t, c.ModifiedEntries())

	name := "x"
	_, err := c.Edit(2, model.EditPatch{Name: &name})
	require.NoError(t, err)
	_, err = c.Edit(4, model.EditPatch{Name: &name})
	require.NoError(t, err)

	modified := c.ModifiedEntries()
	require.Len(t, modified, 2)
	assert.Equal(t, 2, modified[0].Pokemon.ID)
	assert.Equal(t, 4, modified[1].Pokemon.ID)
}
