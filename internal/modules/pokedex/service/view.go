package service

import (
	"sort"
	"strconv"
	"strings"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/xerrors"
)

// 视图派生器。视图是规范集合的纯函数投影:
// 属性过滤 -> 搜索 -> 稳定排序 -> 分页，任何一步都不改写集合本身。

const (
	// DefaultPageSize 默认每页条数
	DefaultPageSize = 10
	// MaxPageSize 每页条数上限
	MaxPageSize = 50
	// maxVisiblePages 页码导航最多展示的页数
	maxVisiblePages = 5
)

// pageSizeOptions 每页条数的可选档位，与前端下拉选项一致
var pageSizeOptions = map[int]bool{10: true, 20: true, 30: true, 50: true}

// NormalizeQuery 校验并补全视图参数，非法参数返回 81xxxx 段错误
func NormalizeQuery(q model.ViewQuery) (model.ViewQuery, error) {
	if q.Type == "" {
		q.Type = model.TypeFilterAll
	}
	if q.SortBy == "" {
		q.SortBy = model.SortKeyID
	}
	switch q.SortBy {
	case model.SortKeyID, model.SortKeyName, model.SortKeyHeight, model.SortKeyWeight:
	default:
		return q, xerrors.FromCode(xerrors.CodeInvalidSortKey)
	}

	if q.SortOrder == "" {
		q.SortOrder = model.SortOrderAsc
	}
	switch q.SortOrder {
	case model.SortOrderAsc, model.SortOrderDesc:
	default:
		return q, xerrors.FromCode(xerrors.CodeInvalidSortOrder)
	}

	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if !pageSizeOptions[q.PageSize] {
		return q, xerrors.FromCode(xerrors.CodeInvalidPageSize)
	}

	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, xerrors.FromCode(xerrors.CodeInvalidPage)
	}

	return q, nil
}

// DeriveView 从集合派生一页视图
// 宽限期内的实体仍出现在列表中并带待删除标记，但不计入可用总数
func DeriveView(c *Collection, q model.ViewQuery) (*model.ViewPage, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}

	// 1. 属性过滤
	filtered := make([]*model.Entry, 0, c.Len())
	for _, e := range c.Entries() {
		if q.Type != model.TypeFilterAll && !e.Pokemon.HasType(q.Type) {
			continue
		}
		filtered = append(filtered, e)
	}

	// 2. 搜索: 名称子串或编号十进制串
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term != "" {
		matched := filtered[:0]
		for _, e := range filtered {
			name := strings.ToLower(e.Pokemon.Name)
			id := strconv.Itoa(e.Pokemon.ID)
			if strings.Contains(name, term) || strings.Contains(id, term) {
				matched = append(matched, e)
			}
		}
		filtered = matched
	}

	// 3. 稳定排序，相等时保持加载顺序
	sortEntries(filtered, q.SortBy, q.SortOrder)

	// 4. 分页
	total := len(filtered)
	totalPages := (total + q.PageSize - 1) / q.PageSize

	startIdx := (q.Page - 1) * q.PageSize
	endIdx := startIdx + q.PageSize
	if startIdx > total {
		startIdx = total
	}
	if endIdx > total {
		endIdx = total
	}

	items := make([]model.ViewItem, 0, endIdx-startIdx)
	for _, e := range filtered[startIdx:endIdx] {
		items = append(items, model.ViewItem{
			Pokemon:       e.Pokemon,
			PendingDelete: e.IsPendingDelete(),
			Modified:      e.Modified,
		})
	}

	displayStart, displayEnd := displayRange(q.Page, q.PageSize, total)

	return &model.ViewPage{
		Items:          items,
		Page:           q.Page,
		PageSize:       q.PageSize,
		TotalMatching:  total,
		TotalPages:     totalPages,
		DisplayStart:   displayStart,
		DisplayEnd:     displayEnd,
		PageNumbers:    pageNumbers(q.Page, totalPages),
		AvailableTotal: c.AvailableCount(),
	}, nil
}

// sortEntries 按指定键稳定排序
func sortEntries(entries []*model.Entry, sortBy, sortOrder string) {
	desc := sortOrder == model.SortOrderDesc

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Pokemon, entries[j].Pokemon

		var less bool
		switch sortBy {
		case model.SortKeyName:
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an == bn {
				return false
			}
			less = an < bn
		case model.SortKeyHeight:
			if a.Height == b.Height {
				return false
			}
			less = a.Height < b.Height
		case model.SortKeyWeight:
			if a.Weight == b.Weight {
				return false
			}
			less = a.Weight < b.Weight
		default:
			if a.ID == b.ID {
				return false
			}
			less = a.ID < b.ID
		}

		if desc {
			return !less
		}
		return less
	})
}

// displayRange 当前页覆盖的展示区间，空结果为 [0, 0]
func displayRange(page, pageSize, total int) (int, int) {
	if total == 0 {
		return 0, 0
	}
	start := (page-1)*pageSize + 1
	end := page * pageSize
	if end > total {
		end = total
	}
	if start > total {
		return 0, 0
	}
	return start, end
}

// pageNumbers 以当前页为中心的页码导航窗口，最多 5 页
func pageNumbers(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	if totalPages <= maxVisiblePages {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	startPage := current - 2
	if startPage < 1 {
		startPage = 1
	}
	endPage := startPage + maxVisiblePages - 1
	if endPage > totalPages {
		endPage = totalPages
		startPage = endPage - maxVisiblePages + 1
		if startPage < 1 {
			startPage = 1
		}
	}

	pages := make([]int, 0, endPage-startPage+1)
	for p := startPage; p <= endPage; p++ {
		pages = append(pages, p)
	}
	return pages
}
