package service

import (
	"context"
	"fmt"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/xerrors"
)

// makePokemon 构造测试用的宝可梦记录
func makePokemon(id int, name string, height, weight int, types ...string) *model.Pokemon {
	p := &model.Pokemon{
		ID:             id,
		Name:           name,
		Height:         height,
		Weight:         weight,
		BaseExperience: id * 10,
		Stats: []model.StatEntry{
			{BaseStat: 45, Stat: model.NamedRef{Name: "hp"}},
			{BaseStat: 49, Stat: model.NamedRef{Name: "attack"}},
			{BaseStat: 49, Stat: model.NamedRef{Name: "defense"}},
		},
	}
	for i, tn := range types {
		p.Types = append(p.Types, model.TypeSlot{
			Slot: i + 1,
			Type: model.NamedRef{Name: tn},
		})
	}
	return p
}

// editName 构造只改名称的编辑补丁
func editName(name string) model.EditPatch {
	return model.EditPatch{Name: &name}
}

// loadedCollection 构造已加载指定数量条目的集合
func loadedCollection(count int) *Collection {
	pokemon := make([]*model.Pokemon, 0, count)
	for i := 1; i <= count; i++ {
		pokemon = append(pokemon, makePokemon(i, fmt.Sprintf("pokemon-%03d", i), i%20+1, i%50+1, "normal"))
	}
	c := NewCollection()
	if err := c.Load(pokemon); err != nil {
		panic(err)
	}
	return c
}

// fullFakeCatalog 构造覆盖完整引导区间的目录数据源
func fullFakeCatalog() *fakeCatalog {
	ps := make([]*model.Pokemon, 0, BootstrapLastID)
	for i := BootstrapFirstID; i <= BootstrapLastID; i++ {
		ps = append(ps, makePokemon(i, fmt.Sprintf("pokemon-%03d", i), i%20+1, i%50+1, "normal"))
	}
	return newFakeCatalog(ps...)
}

// fakeCatalog 测试用的目录数据源，从内存数据表返回结果
type fakeCatalog struct {
	pokemon  map[int]*model.Pokemon
	types    []string
	failNext bool
	calls    int
}

func newFakeCatalog(pokemon ...*model.Pokemon) *fakeCatalog {
	byID := make(map[int]*model.Pokemon, len(pokemon))
	for _, p := range pokemon {
		byID[p.ID] = p
	}
	return &fakeCatalog{
		pokemon: byID,
		types:   []string{"normal", "fire", "water", "grass"},
	}
}

func (f *fakeCatalog) GetPokemon(ctx context.Context, id int) (*model.Pokemon, error) {
	f.calls++
	if f.failNext {
		return nil, xerrors.NewCatalogError(fmt.Sprintf("pokemon/%d", id), fmt.Errorf("目录不可用"))
	}
	p, ok := f.pokemon[id]
	if !ok {
		return nil, xerrors.NewCatalogError(fmt.Sprintf("pokemon/%d", id), fmt.Errorf("不存在"))
	}
	// 返回副本，模拟每次引导都从目录拿到原始数据
	clone := *p
	clone.Stats = append([]model.StatEntry(nil), p.Stats...)
	clone.Types = append([]model.TypeSlot(nil), p.Types...)
	return &clone, nil
}

func (f *fakeCatalog) GetPokemonRange(ctx context.Context, from, to int) ([]*model.Pokemon, error) {
	result := make([]*model.Pokemon, 0, to-from+1)
	for id := from; id <= to; id++ {
		p, err := f.GetPokemon(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (f *fakeCatalog) ListTypes(ctx context.Context) ([]string, error) {
	if f.failNext {
		return nil, xerrors.NewCatalogError("type", fmt.Errorf("目录不可用"))
	}
	return f.types, nil
}
