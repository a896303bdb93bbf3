package model

// 视图派生相关的类型。视图永远从规范集合推导，不单独存储。

// 排序键与方向的合法取值
const (
	SortKeyID     = "id"
	SortKeyName   = "name"
	SortKeyHeight = "height"
	SortKeyWeight = "weight"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"

	// TypeFilterAll 不过滤属性
	TypeFilterAll = "all"
)

// ViewQuery 一次视图派生的全部参数
type ViewQuery struct {
	Search    string `json:"search"`
	Type      string `json:"type"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// ViewItem 视图中的一行，携带展示所需的状态标记
type ViewItem struct {
	Pokemon       *Pokemon `json:"pokemon"`
	PendingDelete bool     `json:"pending_delete"`
	Modified      bool     `json:"modified"`
}

// ViewPage 派生视图的一页及其展示元数据
type ViewPage struct {
	Items          []ViewItem `json:"items"`
	Page           int        `json:"page"`
	PageSize       int        `json:"page_size"`
	TotalMatching  int        `json:"total_matching"`
	TotalPages     int        `json:"total_pages"`
	DisplayStart   int        `json:"display_start"`
	DisplayEnd     int        `json:"display_end"`
	PageNumbers    []int      `json:"page_numbers"`
	AvailableTotal int        `json:"available_total"`
}

// EditPatch 可编辑字段的补丁，nil 表示不修改
type EditPatch struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100,pokemon_name"`
	Height         *int    `json:"height" validate:"omitempty,positive_number"`
	Weight         *int    `json:"weight" validate:"omitempty,positive_number"`
	BaseExperience *int    `json:"base_experience" validate:"omitempty,positive_number"`
	Stats          []StatPatch `json:"stats" validate:"omitempty,dive"`
}

// StatPatch 单项种族值修改，按 stat 名称匹配
type StatPatch struct {
	Name     string `json:"name" validate:"required"`
	BaseStat int    `json:"base_stat" validate:"stat_value"`
}
