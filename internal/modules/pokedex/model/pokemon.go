// Package model 定义图鉴条目的数据结构
// JSON 形状由目录数据源 (PokeAPI) 决定，本服务不拥有线格式
package model

// Pokemon 目录数据源返回的宝可梦记录
type Pokemon struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience int           `json:"base_experience"`
	Sprites        Sprites       `json:"sprites"`
	Types          []TypeSlot    `json:"types"`
	Stats          []StatEntry   `json:"stats"`
	Abilities      []AbilitySlot `json:"abilities"`
}

// Sprites 形象图片地址集合
type Sprites struct {
	FrontDefault string       `json:"front_default"`
	BackDefault  string       `json:"back_default"`
	FrontShiny   string       `json:"front_shiny"`
	BackShiny    string       `json:"back_shiny"`
	Other        OtherSprites `json:"other"`
}

// OtherSprites 额外的图片来源
type OtherSprites struct {
	OfficialArtwork ArtworkSprite `json:"official-artwork"`
	DreamWorld      ArtworkSprite `json:"dream_world"`
}

// ArtworkSprite 单一图片地址
type ArtworkSprite struct {
	FrontDefault string `json:"front_default"`
}

// TypeSlot 属性槽位
type TypeSlot struct {
	Slot int     `json:"slot"`
	Type NamedRef `json:"type"`
}

// StatEntry 种族值条目
type StatEntry struct {
	BaseStat int      `json:"base_stat"`
	Effort   int      `json:"effort"`
	Stat     NamedRef `json:"stat"`
}

// AbilitySlot 特性槽位
type AbilitySlot struct {
	Ability  NamedRef `json:"ability"`
	IsHidden bool     `json:"is_hidden"`
	Slot     int      `json:"slot"`
}

// NamedRef 目录数据源的命名引用 {name, url}
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HasType 判断宝可梦是否拥有指定属性
func (p *Pokemon) HasType(typeName string) bool {
	for _, t := range p.Types {
		if t.Type.Name == typeName {
			return true
		}
	}
	return false
}
