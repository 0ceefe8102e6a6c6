package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storefront_202610/pkg/formstate"
)

// FallbackMessage 服务端未给出原因时的提示
const FallbackMessage = "Update failed"

// APIError 服务端返回的非成功响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.UserMessage())
}

// UserMessage 展示给用户的文案
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return FallbackMessage
}

// ClientOptions 客户端配置
type ClientOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Debug   bool
	Logger  *zap.Logger
}

// Client 管理后台 API 客户端
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetDebug(opts.Debug).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront-adminctl/1.0")
	if opts.Token != "" {
		rc.SetAuthToken(opts.Token)
	}

	return &Client{http: rc, log: opts.Logger}
}

// SetToken 更新 Bearer Token
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out interface{}) error {
	var env envelope
	resp, err := req.
		SetContext(ctx).
		SetResult(&env).
		SetError(&env).
		Execute(method, path)
	if err != nil {
		c.log.Warn("请求失败", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() || env.Code != 0 {
		c.log.Info("接口返回错误",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", env.Message),
		)
		status := resp.StatusCode()
		if status < http.StatusBadRequest {
			status = env.Code
		}
		return &APIError{Status: status, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("解析 %s 响应失败: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, c.http.R(), http.MethodGet, path, out)
}

// ==================== 登录 ====================

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var s Session
	req := c.http.R().SetBody(map[string]string{"username": username, "password": password})
	if err := c.do(ctx, req, http.MethodPost, "/api/auth/login", &s); err != nil {
		return nil, err
	}
	c.SetToken(s.AccessToken)
	return &s, nil
}

// ==================== 商品 ====================

func (c *Client) FetchProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.get(ctx, "/api/products/"+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct 以 multipart 提交表单
func (c *Client) UpdateProduct(ctx context.Context, id string, payload formstate.Payload) (*Product, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := payload.Encode(w); err != nil {
		return nil, fmt.Errorf("编码表单失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("编码表单失败: %w", err)
	}

	req := c.http.R().
		SetHeader("Content-Type", w.FormDataContentType()).
		SetBody(body.Bytes())

	var p Product
	if err := c.do(ctx, req, http.MethodPut, "/api/admin/products/"+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/api/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchBanners(ctx context.Context) ([]Banner, error) {
	var out []Banner
	if err := c.get(ctx, "/api/banners", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ==================== 仪表盘 ====================

func (c *Client) FetchDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.get(ctx, "/api/admin/dashboard/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchPieCharts(ctx context.Context) (*PieCharts, error) {
	var out PieCharts
	if err := c.get(ctx, "/api/admin/dashboard/pie", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchBarCharts(ctx context.Context) (*BarCharts, error) {
	var out BarCharts
	if err := c.get(ctx, "/api/admin/dashboard/bar", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchLineCharts(ctx context.Context) (*LineCharts, error) {
	var out LineCharts
	if err := c.get(ctx, "/api/admin/dashboard/line", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	var out []ActivityEntry
	if err := c.get(ctx, "/api/admin/dashboard/activity?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchRecentUsers(ctx context.Context, limit int) ([]RecentUser, error) {
	var out []RecentUser
	if err := c.get(ctx, "/api/admin/dashboard/recent-users?limit="+strconv.Itoa(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}
