package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// NewLocator 根据配置创建定位实例
func NewLocator(cfg config.GeoConfig) (Locator, error) {
	switch cfg.Provider {
	case "", "none":
		return Unavailable{}, nil
	case "static":
		return Static(model.Location{Latitude: cfg.Static.Latitude, Longitude: cfg.Static.Longitude}), nil
	case "ipapi":
		return NewIPClient(cfg.IPAPI.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown geo provider: %s", cfg.Provider)
	}
}

// Unavailable 设备不支持定位
type Unavailable struct{}

// Locate 实现 Locator
func (Unavailable) Locate(context.Context) (*model.Location, error) {
	return nil, ErrUnavailable
}

// Static 固定坐标
func Static(loc model.Location) Locator {
	return LocatorFunc(func(context.Context) (*model.Location, error) {
		l := loc
		return &l, nil
	})
}

const defaultIPAPIURL = "http://ip-api.com/json"

// IPClient 基于 ip-api.com 的 IP 定位客户端
type IPClient struct {
	baseURL string
	client  *http.Client
}

// NewIPClient 创建 IP 定位客户端
func NewIPClient(baseURL string) *IPClient {
	if baseURL == "" {
		baseURL = defaultIPAPIURL
	}
	return &IPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

// ipAPIResponse ip-api.com 响应
type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
}

// Locate 实现 Locator
func (c *IPClient) Locate(ctx context.Context) (*model.Location, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("ip-api error (status %d): %s", res.StatusCode, string(body))
	}

	var r ipAPIResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	if r.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, r.Message)
	}

	region := r.City
	if region == "" {
		region = r.RegionName
	}
	return &model.Location{Latitude: r.Lat, Longitude: r.Lon, RegionName: region}, nil
}
