// Package handler 暴露图鉴列表引擎的 HTTP 接口
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"pokedex-self/internal/middleware"
	"pokedex-self/internal/modules/pokedex/client"
	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/modules/pokedex/service"
	"pokedex-self/internal/pkg/response"
)

// PokedexHandler handles pokedex HTTP requests
type PokedexHandler struct {
	manager    *service.EngineManager
	catalog    client.CatalogClient
	respWriter response.Writer
}

// NewPokedexHandler creates a new pokedex handler
func NewPokedexHandler(manager *service.EngineManager, catalog client.CatalogClient, respWriter response.Writer) *PokedexHandler {
	return &PokedexHandler{
		manager:    manager,
		catalog:    catalog,
		respWriter: respWriter,
	}
}

// ==================== HTTP Request/Response Models ====================

// ListPokemonRequest 列表查询参数
type ListPokemonRequest struct {
	Search    string `query:"search" validate:"omitempty,max=100,safe_search"`
	Type      string `query:"type" validate:"omitempty,type_name"`
	SortBy    string `query:"sort_by" validate:"omitempty,sort_key"`
	SortOrder string `query:"sort_order" validate:"omitempty,sort_order"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	PageSize  int    `query:"page_size" validate:"omitempty,page_size"`
}

// UpdatePokemonRequest 编辑请求体
type UpdatePokemonRequest struct {
	Name           *string           `json:"name" validate:"omitempty,min=1,max=100,pokemon_name"`
	Height         *int              `json:"height" validate:"omitempty,min=1"`
	Weight         *int              `json:"weight" validate:"omitempty,min=1"`
	BaseExperience *int              `json:"base_experience" validate:"omitempty,min=0"`
	Stats          []StatUpdate      `json:"stats" validate:"omitempty,dive"`
}

// StatUpdate 单项种族值修改
type StatUpdate struct {
	Name     string `json:"name" validate:"required"`
	BaseStat int    `json:"base_stat" validate:"stat_value"`
}

// TypeListResponse 属性清单响应
type TypeListResponse struct {
	Types []string `json:"types"`
}

// ==================== HTTP Handlers ====================

// ListPokemon handles listing the derived view
// @Summary 查询图鉴列表
// @Description 按过滤、搜索、排序、分页参数派生当前用户的图鉴视图
// @Tags 图鉴
// @Accept json
// @Produce json
// @Param search query string false "搜索词，匹配名称或编号"
// @Param type query string false "属性过滤，all 表示不过滤"
// @Param sort_by query string false "排序字段" Enums(id, name, height, weight)
// @Param sort_order query string false "排序方向" Enums(asc, desc)
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页条数"
// @Success 200 {object} response.APIResponse[model.ViewPage] "查询成功"
// @Failure 400 {object} response.APIResponse[response.EmptyData] "查询参数无效"
// @Router /pokedex/pokemon [get]
func (h *PokedexHandler) ListPokemon(c echo.Context) error {
	// 1. 绑定和验证查询参数
	var req ListPokemonRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	// 2. 取当前身份的引擎
	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	// 3. 派生视图
	page, err := engine.List(c.Request().Context(), model.ViewQuery{
		Search:    req.Search,
		Type:      req.Type,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, page)
}

// GetPokemon handles getting a single entry
// @Summary 获取单只宝可梦
// @Description 按编号获取宝可梦详情及其删除、修改标记
// @Tags 图鉴
// @Produce json
// @Param id path int true "宝可梦编号"
// @Success 200 {object} response.APIResponse[model.ViewItem] "获取成功"
// @Failure 404 {object} response.APIResponse[response.EmptyData] "宝可梦不存在"
// @Router /pokedex/pokemon/{id} [get]
func (h *PokedexHandler) GetPokemon(c echo.Context) error {
	id, err := h.pokemonID(c)
	if err != nil {
		return response.EchoBadRequest(c, h.respWriter, "宝可梦编号无效")
	}

	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	item, err := engine.Get(c.Request().Context(), id)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, item)
}

// UpdatePokemon handles editing an entry
// @Summary 编辑宝可梦
// @Description 修改可编辑字段并立即持久化，宽限期内的实体同样允许编辑
// @Tags 图鉴
// @Accept json
// @Produce json
// @Param id path int true "宝可梦编号"
// @Param request body UpdatePokemonRequest true "编辑请求"
// @Success 200 {object} response.APIResponse[model.ViewItem] "编辑成功"
// @Failure 400 {object} response.APIResponse[response.EmptyData] "请求参数错误"
// @Failure 404 {object} response.APIResponse[response.EmptyData] "宝可梦不存在"
// @Failure 409 {object} response.APIResponse[response.EmptyData] "宝可梦处于删除倒计时中"
// @Router /pokedex/pokemon/{id} [put]
func (h *PokedexHandler) UpdatePokemon(c echo.Context) error {
	// 1. 绑定和验证 HTTP 请求
	id, err := h.pokemonID(c)
	if err != nil {
		return response.EchoBadRequest(c, h.respWriter, "宝可梦编号无效")
	}

	var req UpdatePokemonRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	// 2. 调用引擎
	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	patch := model.EditPatch{
		Name:           req.Name,
		Height:         req.Height,
		Weight:         req.Weight,
		BaseExperience: req.BaseExperience,
	}
	for _, s := range req.Stats {
		patch.Stats = append(patch.Stats, model.StatPatch{
			Name:     s.Name,
			BaseStat: s.BaseStat,
		})
	}

	item, err := engine.Edit(c.Request().Context(), id, patch)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, item)
}

// DeletePokemon handles the delete toggle
// @Summary 删除开关
// @Description 活跃实体进入删除宽限期，宽限期内的实体恢复活跃
// @Tags 图鉴
// @Produce json
// @Param id path int true "宝可梦编号"
// @Success 200 {object} response.APIResponse[model.ViewItem] "切换成功"
// @Failure 404 {object} response.APIResponse[response.EmptyData] "宝可梦不存在"
// @Router /pokedex/pokemon/{id} [delete]
func (h *PokedexHandler) DeletePokemon(c echo.Context) error {
	id, err := h.pokemonID(c)
	if err != nil {
		return response.EchoBadRequest(c, h.respWriter, "宝可梦编号无效")
	}

	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	item, err := engine.ToggleDelete(c.Request().Context(), id)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, item)
}

// RestorePokemon handles restoring a pending-delete entry
// @Summary 撤销删除
// @Description 撤销宽限期内的删除标记，实体恢复活跃状态
// @Tags 图鉴
// @Produce json
// @Param id path int true "宝可梦编号"
// @Success 200 {object} response.APIResponse[model.ViewItem] "恢复成功"
// @Failure 404 {object} response.APIResponse[response.EmptyData] "宝可梦不存在"
// @Router /pokedex/pokemon/{id}/restore [post]
func (h *PokedexHandler) RestorePokemon(c echo.Context) error {
	id, err := h.pokemonID(c)
	if err != nil {
		return response.EchoBadRequest(c, h.respWriter, "宝可梦编号无效")
	}

	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	item, err := engine.Restore(c.Request().Context(), id)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, item)
}

// ResetPokedex handles restoring factory data
// @Summary 重置图鉴
// @Description 清空当前用户的编辑快照与删除清单并重新引导目录数据
// @Tags 图鉴
// @Produce json
// @Success 200 {object} response.APIResponse[response.EmptyData] "重置成功"
// @Failure 500 {object} response.APIResponse[response.EmptyData] "重新引导失败"
// @Router /pokedex/reset [post]
func (h *PokedexHandler) ResetPokedex(c echo.Context) error {
	engine, err := h.engineFor(c)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	if err := engine.Reset(c.Request().Context()); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, response.EmptyData{})
}

// ListTypes handles listing catalog types
// @Summary 获取属性清单
// @Description 从目录数据源获取全部属性名称，供过滤器使用
// @Tags 图鉴
// @Produce json
// @Success 200 {object} response.APIResponse[TypeListResponse] "获取成功"
// @Failure 503 {object} response.APIResponse[response.EmptyData] "目录数据源不可用"
// @Router /pokedex/types [get]
func (h *PokedexHandler) ListTypes(c echo.Context) error {
	types, err := h.catalog.ListTypes(c.Request().Context())
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, TypeListResponse{Types: types})
}

// ==================== Helpers ====================

// engineFor 从认证上下文取当前身份的引擎
func (h *PokedexHandler) engineFor(c echo.Context) (*service.Engine, error) {
	identity, err := middleware.GetCurrentIdentity(c)
	if err != nil {
		return nil, err
	}
	return h.manager.Engine(identity)
}

// pokemonID 解析路径中的宝可梦编号
func (h *PokedexHandler) pokemonID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
