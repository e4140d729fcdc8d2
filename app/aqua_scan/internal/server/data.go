package server

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/geo"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/storage"
)

// NewStore 根据配置创建历史记录存储
func NewStore(c *config.Config, logger log.Logger) (*storage.Store, func(), error) {
	kv, err := storage.NewKV(c.Storage)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		log.NewHelper(logger).Info("closing the history store")
		kv.Close()
	}
	return storage.NewStore(kv, c.Storage.Key), cleanup, nil
}

// NewGeoAdapter 根据配置创建定位适配器
func NewGeoAdapter(c *config.Config) (*geo.Adapter, error) {
	locator, err := geo.NewLocator(c.Geo)
	if err != nil {
		return nil, err
	}
	return geo.NewAdapter(locator, c.Geo.Timeout), nil
}
