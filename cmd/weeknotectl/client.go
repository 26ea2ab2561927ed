package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// APIClient 封装 HTTP 客户端
type APIClient struct {
	BaseURL string
	client  *resty.Client
}

// NewAPIClient 创建新的 API 客户端；每个请求带一个新的 X-Request-ID 便于在服务端日志中对应
func NewAPIClient(cfg *Config) *APIClient {
	c := resty.New().
		SetBaseURL(cfg.ServerURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})
	return &APIClient{BaseURL: cfg.ServerURL, client: c}
}

// Get 发送 GET 请求
func (c *APIClient) Get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).SetQueryParams(query).Get(path)
	return c.check(resp, err)
}

// Request 发送带 JSON body 的请求 (POST/PUT/DELETE)
func (c *APIClient) Request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	resp, err := c.Raw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Raw 发送请求并返回完整响应，供需要响应头的调用方使用
func (c *APIClient) Raw(ctx context.Context, method, path string, body interface{}) (*resty.Response, error) {
	r := c.client.R().SetContext(ctx)
	if body != nil {
		r.SetBody(body)
	}
	resp, err := r.Execute(method, path)
	if _, err := c.check(resp, err); err != nil {
		return nil, err
	}
	return resp, nil
}

// check 统一处理网络错误与非 2xx 响应
func (c *APIClient) check(resp *resty.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, fmt.Errorf("request failed (check WEEKNOTE_SERVER_URL=%s): %w", c.BaseURL, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, fmt.Errorf("authentication failed (401): run 'weeknotectl login' or set WEEKNOTE_TOKEN")
	}
	if resp.StatusCode() >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body(), &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), e.Error)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return resp.Body(), nil
}
