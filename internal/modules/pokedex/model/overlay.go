package model

// 持久化覆盖层的存储形状。字段集合是稳定的快照格式，
// 与 Pokemon 的完整形状解耦，避免目录数据源加字段时污染存量数据。

// ModificationSnapshot 一条已编辑实体的持久化快照
type ModificationSnapshot struct {
	Name           string         `json:"name"`
	Height         int            `json:"height"`
	Weight         int            `json:"weight"`
	BaseExperience int            `json:"base_experience"`
	Stats          []SnapshotStat `json:"stats"`
}

// SnapshotStat 快照中的单项种族值
type SnapshotStat struct {
	BaseStat int          `json:"base_stat"`
	Stat     SnapshotName `json:"stat"`
}

// SnapshotName 快照中的命名引用，仅保留名称
type SnapshotName struct {
	Name string `json:"name"`
}

// SnapshotFromPokemon 从当前实体生成持久化快照
func SnapshotFromPokemon(p *Pokemon) ModificationSnapshot {
	snap := ModificationSnapshot{
		Name:           p.Name,
		Height:         p.Height,
		Weight:         p.Weight,
		BaseExperience: p.BaseExperience,
		Stats:          make([]SnapshotStat, 0, len(p.Stats)),
	}
	for _, s := range p.Stats {
		snap.Stats = append(snap.Stats, SnapshotStat{
			BaseStat: s.BaseStat,
			Stat:     SnapshotName{Name: s.Stat.Name},
		})
	}
	return snap
}

// ApplyTo 把快照套用回实体，按 stat 名称匹配更新种族值
func (m ModificationSnapshot) ApplyTo(p *Pokemon) {
	p.Name = m.Name
	p.Height = m.Height
	p.Weight = m.Weight
	p.BaseExperience = m.BaseExperience
	for _, ms := range m.Stats {
		for i := range p.Stats {
			if p.Stats[i].Stat.Name == ms.Stat.Name {
				p.Stats[i].BaseStat = ms.BaseStat
				break
			}
		}
	}
}
