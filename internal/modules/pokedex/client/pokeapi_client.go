// Package client 封装与目录数据源 (PokeAPI) 的所有交互
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pokedex-self/internal/modules/pokedex/model"
	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/metrics"
	"pokedex-self/internal/pkg/xerrors"
)

const (
	// DefaultBaseURL 目录数据源的默认地址
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	// defaultTimeout 单次目录请求的超时时间
	defaultTimeout = 15 * time.Second

	// bulkConcurrency 批量拉取时的并发上限，避免压垮目录数据源
	bulkConcurrency = 16
)

// CatalogClient 目录数据源客户端接口
type CatalogClient interface {
	// GetPokemon 按编号拉取单只宝可梦
	GetPokemon(ctx context.Context, id int) (*model.Pokemon, error)
	// GetPokemonRange 并发拉取 [from, to] 区间内的全部宝可梦，任一失败则整体失败
	GetPokemonRange(ctx context.Context, from, to int) ([]*model.Pokemon, error)
	// ListTypes 拉取全部属性名称
	ListTypes(ctx context.Context) ([]string, error)
}

// PokeAPIClient 基于 HTTP 的目录数据源客户端
type PokeAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewPokeAPIClient 创建目录数据源客户端，baseURL 为空时使用默认地址
func NewPokeAPIClient(baseURL string, logger log.Logger) *PokeAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &PokeAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// GetPokemon 按编号拉取单只宝可梦
func (c *PokeAPIClient) GetPokemon(ctx context.Context, id int) (*model.Pokemon, error) {
	start := time.Now()

	var pokemon model.Pokemon
	err := c.getJSON(ctx, fmt.Sprintf("%s/pokemon/%d", c.baseURL, id), &pokemon)

	metrics.DefaultResourceMetrics.RecordCatalogRequest("pokemon", err == nil, time.Since(start), "dashboard")
	log.LogCatalogFetch(ctx, "pokemon", 1, time.Since(start).Milliseconds(), err)

	if err != nil {
		return nil, xerrors.NewCatalogError(fmt.Sprintf("pokemon/%d", id), err)
	}
	return &pokemon, nil
}

// GetPokemonRange 并发拉取区间内的全部宝可梦
// 全部成功才返回结果，结果按编号升序排列
func (c *PokeAPIClient) GetPokemonRange(ctx context.Context, from, to int) ([]*model.Pokemon, error) {
	if from > to {
		return nil, xerrors.New(xerrors.CodeInvalidParams, "无效的编号区间")
	}

	start := time.Now()

	var mu sync.Mutex
	result := make([]*model.Pokemon, 0, to-from+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)

	for id := from; id <= to; id++ {
		id := id
		g.Go(func() error {
			pokemon, err := c.GetPokemon(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			result = append(result, pokemon)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.ErrorContext(ctx, "批量拉取宝可梦失败",
			log.Int("from", from),
			log.Int("to", to),
			log.Any("error", err))
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	log.LogCatalogFetch(ctx, "pokemon_range", len(result), time.Since(start).Milliseconds(), nil)
	return result, nil
}

// ListTypes 拉取全部属性名称
func (c *PokeAPIClient) ListTypes(ctx context.Context) ([]string, error) {
	start := time.Now()

	var list model.ResourceList
	err := c.getJSON(ctx, c.baseURL+"/type", &list)

	metrics.DefaultResourceMetrics.RecordCatalogRequest("type", err == nil, time.Since(start), "dashboard")
	log.LogCatalogFetch(ctx, "type", len(list.Results), time.Since(start).Milliseconds(), err)

	if err != nil {
		return nil, xerrors.NewCatalogError("type", err)
	}

	names := make([]string, 0, len(list.Results))
	for _, r := range list.Results {
		names = append(names, r.Name)
	}
	return names, nil
}

// getJSON 执行 GET 请求并解析 JSON 响应
func (c *PokeAPIClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("目录数据源返回异常状态码: %d, 响应: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
