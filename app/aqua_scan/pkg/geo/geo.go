package geo

import (
	"context"
	"errors"
	"time"

	"github.com/golang/geo/s2"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/logger"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// DefaultTimeout 定位请求的等待上限
const DefaultTimeout = 5 * time.Second

// ErrUnavailable 当前无法获取位置
var ErrUnavailable = errors.New("location unavailable")

// Locator 定义通用的定位接口
type Locator interface {
	Locate(ctx context.Context) (*model.Location, error)
}

// LocatorFunc 函数适配器
type LocatorFunc func(ctx context.Context) (*model.Location, error)

// Locate 实现 Locator
func (f LocatorFunc) Locate(ctx context.Context) (*model.Location, error) {
	return f(ctx)
}

// Adapter 尽力而为的定位，失败或超时都返回 nil，不向调用方报错
type Adapter struct {
	locator Locator
	timeout time.Duration
}

// NewAdapter 创建定位适配器，locator 可以为 nil
func NewAdapter(locator Locator, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{locator: locator, timeout: timeout}
}

// Current 返回当前坐标
// hints 按顺序优先使用（浏览器上报的位置、照片 EXIF 等），全部为空时才查询 locator
func (a *Adapter) Current(ctx context.Context, hints ...*model.Location) *model.Location {
	for _, h := range hints {
		if Valid(h) {
			l := *h
			return &l
		}
	}
	if a == nil || a.locator == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		loc *model.Location
		err error
	}
	// 缓冲为 1，超时后 locator 返回也不会阻塞
	ch := make(chan result, 1)
	go func() {
		loc, err := a.locator.Locate(ctx)
		ch <- result{loc, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logger.Log.Debugf("定位失败: %v", r.err)
			return nil
		}
		if !Valid(r.loc) {
			return nil
		}
		return r.loc
	case <-ctx.Done():
		logger.Log.Debugf("定位超时 (%v)", a.timeout)
		return nil
	}
}

// Valid 判断坐标是否合法
func Valid(loc *model.Location) bool {
	if loc == nil {
		return false
	}
	return s2.LatLngFromDegrees(loc.Latitude, loc.Longitude).IsValid()
}
