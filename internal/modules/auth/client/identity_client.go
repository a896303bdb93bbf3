// Package client 封装远端身份服务的 HTTP 调用
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pokedex-self/internal/pkg/log"
	"pokedex-self/internal/pkg/xerrors"
)

const (
	// DefaultBaseURL 远端身份服务的默认地址
	DefaultBaseURL = "https://api.escuelajs.co/api/v1"

	// defaultTimeout 单次请求的超时时间
	defaultTimeout = 10 * time.Second
)

// RemoteUser 远端身份服务的用户记录
type RemoteUser struct {
	ID     int    `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

// TokenPair 登录成功后返回的令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IdentityClient 远端身份服务客户端接口
type IdentityClient interface {
	// Login 用邮箱密码换取访问令牌
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	// Profile 用访问令牌换取用户资料
	Profile(ctx context.Context, accessToken string) (*RemoteUser, error)
	// CreateUser 在远端身份服务注册新用户
	CreateUser(ctx context.Context, email, password, name, avatar string) (*RemoteUser, error)
}

// HTTPIdentityClient 基于 HTTP 的身份服务客户端
type HTTPIdentityClient struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewHTTPIdentityClient 创建身份服务客户端，baseURL 为空时使用默认地址
func NewHTTPIdentityClient(baseURL string, logger log.Logger) *HTTPIdentityClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPIdentityClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// Login 用邮箱密码换取访问令牌
func (c *HTTPIdentityClient) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var tokens TokenPair
	status, err := c.postJSON(ctx, c.baseURL+"/auth/login", payload, &tokens)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeIdentityAPIError, "身份服务登录请求失败", err)
	}
	if status == http.StatusUnauthorized {
		return nil, xerrors.FromCode(xerrors.CodeInvalidCredentials)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, fmt.Sprintf("身份服务返回异常状态码: %d", status))
	}
	if tokens.AccessToken == "" {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, "身份服务未返回访问令牌")
	}
	return &tokens, nil
}

// Profile 用访问令牌换取用户资料
func (c *HTTPIdentityClient) Profile(ctx context.Context, accessToken string) (*RemoteUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/profile", nil)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeIdentityAPIError, "构造资料请求失败", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeIdentityAPIError, "身份服务资料请求失败", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, xerrors.NewTokenError("access")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, fmt.Sprintf("身份服务返回异常状态码: %d", resp.StatusCode))
	}

	var user RemoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeIdentityAPIError, "解析用户资料失败", err)
	}
	return &user, nil
}

// CreateUser 在远端身份服务注册新用户
func (c *HTTPIdentityClient) CreateUser(ctx context.Context, email, password, name, avatar string) (*RemoteUser, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
		"avatar":   avatar,
	}

	var user RemoteUser
	status, err := c.postJSON(ctx, c.baseURL+"/users/", payload, &user)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeIdentityAPIError, "身份服务注册请求失败", err)
	}
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		return nil, xerrors.NewUserExistsError(email)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, xerrors.New(xerrors.CodeIdentityAPIError, fmt.Sprintf("身份服务返回异常状态码: %d", status))
	}
	return &user, nil
}

// postJSON 发送 JSON 请求并解析响应，返回状态码供调用方判定
func (c *HTTPIdentityClient) postJSON(ctx context.Context, url string, payload, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// 错误状态码也可能带响应体，先读完再判定
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode < 400 && out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
