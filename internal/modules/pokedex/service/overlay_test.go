package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/kvstore"
	"pokedex-self/internal/pkg/log"
)

func newTestOverlayStore() (*OverlayStore, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	return NewOverlayStore(store, log.GetLogger()), store
}

// TestSanitizeIdentity 测试身份标识的键后缀转换
func TestSanitizeIdentity(t *testing.T) {
	tests := []struct {
		identity string
		want     string
	}{
		{"ash@pallet.town", "ash_pallet_town"},
		{"simple", "simple"},
		{"UPPER.case+tag@x.io", "UPPER_case_tag_x_io"},
		{"数字123", "______123"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeIdentity(tt.identity))
	}
}

// TestOverlayStore_SaveLoadRoundTrip 测试覆盖层的保存与还原
func TestOverlayStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOverlayStore()

	c := loadedCollection(5)
	name := "edited"
	_, err := c.Edit(3, model.EditPatch{
		Name:  &name,
		Stats: []model.StatPatch{{Name: "hp", BaseStat: 100}},
	})
	require.NoError(t, err)

	o.Save(ctx, "ash@pallet.town", c, []int{2, 4})

	overlay := o.Load(ctx, "ash@pallet.town")
	require.Contains(t, overlay.Modifications, "3")
	assert.Equal(t, "edited", overlay.Modifications["3"].Name)
	assert.Equal(t, []int{2, 4}, overlay.DeletedIDs)

	snapStats := overlay.Modifications["3"].Stats
	require.NotEmpty(t, snapStats)
	assert.Equal(t, "hp", snapStats[0].Stat.Name)
	assert.Equal(t, 100, snapStats[0].BaseStat)

	// 不同身份读不到彼此的覆盖层
	other := o.Load(ctx, "gary@pallet.town")
	assert.Empty(t, other.Modifications)
	assert.Empty(t, other.DeletedIDs)
}

// TestOverlayStore_ApplyTo 测试覆盖层套用到新加载的集合
func TestOverlayStore_ApplyTo(t *testing.T) {
	overlay := &Overlay{
		Modifications: map[string]model.ModificationSnapshot{
			"1": {
				Name:           "patched",
				Height:         99,
				Weight:         88,
				BaseExperience: 77,
				Stats: []model.SnapshotStat{
					{BaseStat: 200, Stat: model.SnapshotName{Name: "attack"}},
				},
			},
			// 目录中不存在的编号被忽略
			"999": {Name: "ghost"},
			// 非数字键被忽略
			"abc": {Name: "junk"},
		},
		DeletedIDs: []int{2, 999},
	}

	c := loadedCollection(3)
	overlay.ApplyTo(c)

	// 删除清单生效
	assert.Equal(t, 2, c.Len())
	_, err := c.Get(2)
	require.Error(t, err)

	// 编辑快照生效并带修改标记
	entry, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "patched", entry.Pokemon.Name)
	assert.Equal(t, 99, entry.Pokemon.Height)
	assert.Equal(t, 200, entry.Pokemon.Stats[1].BaseStat)
	assert.True(t, entry.Modified)
}

// TestOverlayStore_MalformedData 测试损坏数据按空覆盖层处理
func TestOverlayStore_MalformedData(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOverlayStore()

	require.NoError(t, store.Set(ctx, modificationsKey("ash"), "{not json"))
	require.NoError(t, store.Set(ctx, deletedKey("ash"), `{"wrong": "shape"}`))

	overlay := o.Load(ctx, "ash")
	assert.Empty(t, overlay.Modifications)
	assert.Empty(t, overlay.DeletedIDs)
}

// TestOverlayStore_NoIdentity 测试缺少身份标识时跳过读写
func TestOverlayStore_NoIdentity(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOverlayStore()

	o.Save(ctx, "", loadedCollection(2), []int{1})
	assert.Equal(t, 0, store.Len())

	overlay := o.Load(ctx, "")
	assert.Empty(t, overlay.Modifications)
	assert.Empty(t, overlay.DeletedIDs)
}

// TestOverlayStore_Clear 测试覆盖层清理
func TestOverlayStore_Clear(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOverlayStore()

	c := loadedCollection(2)
	name := "x"
	_, err := c.Edit(1, model.EditPatch{Name: &name})
	require.NoError(t, err)

	o.Save(ctx, "ash", c, []int{2})
	require.Equal(t, 2, store.Len())

	o.Clear(ctx, "ash")
	assert.Equal(t, 0, store.Len())
}
