package model

// 目录数据源的列表响应形状

// ResourceList 目录数据源的分页资源列表
type ResourceList struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []NamedRef `json:"results"`
}
