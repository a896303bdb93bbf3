package service

import (
	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/xerrors"
)

// Collection 规范集合，持有一个身份命名空间下的全部图鉴条目
// 集合内编号唯一，所有读写都必须由引擎串行化，自身不加锁
type Collection struct {
	entries []*model.Entry
	byID    map[int]*model.Entry
}

// NewCollection 创建空集合
func NewCollection() *Collection {
	return &Collection{
		entries: make([]*model.Entry, 0),
		byID:    make(map[int]*model.Entry),
	}
}

// Load 用目录数据替换集合内容，记录加载顺序
// 出现重复编号时整体失败，集合保持原状
func (c *Collection) Load(pokemon []*model.Pokemon) error {
	entries := make([]*model.Entry, 0, len(pokemon))
	byID := make(map[int]*model.Entry, len(pokemon))

	for i, p := range pokemon {
		if _, dup := byID[p.ID]; dup {
			return xerrors.New(xerrors.CodeDataIntegrityError, "目录数据中存在重复编号")
		}
		entry := &model.Entry{
			Pokemon:   p,
			State:     model.LifecycleActive,
			LoadOrder: i,
		}
		entries = append(entries, entry)
		byID[p.ID] = entry
	}

	c.entries = entries
	c.byID = byID
	return nil
}

// Get 按编号取条目，已清除的实体视同不存在
func (c *Collection) Get(id int) (*model.Entry, error) {
	entry, ok := c.byID[id]
	if !ok {
		return nil, xerrors.NewPokemonNotFoundError(id)
	}
	return entry, nil
}

// Entries 按加载顺序返回全部条目，调用方不得修改切片
func (c *Collection) Entries() []*model.Entry {
	return c.entries
}

// Len 集合内的条目数
func (c *Collection) Len() int {
	return len(c.entries)
}

// Edit 把补丁套用到实体上并标记为已修改
// 处于删除倒计时中的实体不可编辑，必须先撤销删除
func (c *Collection) Edit(id int, patch model.EditPatch) (*model.Entry, error) {
	entry, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if entry.State == model.LifecyclePendingDelete {
		return nil, xerrors.FromCode(xerrors.CodePokemonPendingDelete).
			WithMetadata("pokemon_id", id)
	}

	p := entry.Pokemon
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Weight != nil {
		p.Weight = *patch.Weight
	}
	if patch.BaseExperience != nil {
		p.BaseExperience = *patch.BaseExperience
	}
	for _, sp := range patch.Stats {
		for i := range p.Stats {
			if p.Stats[i].Stat.Name == sp.Name {
				p.Stats[i].BaseStat = sp.BaseStat
				break
			}
		}
	}

	entry.Modified = true
	return entry, nil
}

// MarkPendingDelete 把活跃实体标记为待删除
func (c *Collection) MarkPendingDelete(id int) (*model.Entry, error) {
	entry, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	entry.State = model.LifecyclePendingDelete
	return entry, nil
}

// Restore 把宽限期内的实体恢复为活跃状态
// 对活跃实体恢复是无害的空操作
func (c *Collection) Restore(id int) (*model.Entry, error) {
	entry, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	entry.State = model.LifecycleActive
	return entry, nil
}

// Purge 把实体从集合中移除，移除后编号不再可见
func (c *Collection) Purge(id int) error {
	entry, ok := c.byID[id]
	if !ok {
		return xerrors.NewPokemonNotFoundError(id)
	}
	entry.State = model.LifecyclePurged
	delete(c.byID, id)

	for i, e := range c.entries {
		if e.Pokemon.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	return nil
}

// ModifiedEntries 返回所有带修改标记的条目
func (c *Collection) ModifiedEntries() []*model.Entry {
	var modified []*model.Entry
	for _, e := range c.entries {
		if e.Modified {
			modified = append(modified, e)
		}
	}
	return modified
}

// AvailableCount 可用实体数，待删除与已清除的实体不计入
func (c *Collection) AvailableCount() int {
	count := 0
	for _, e := range c.entries {
		if e.State == model.LifecycleActive {
			count++
		}
	}
	return count
}
