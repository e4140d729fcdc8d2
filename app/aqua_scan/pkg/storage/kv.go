package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
)

// KV 设备本地的键值存储
type KV interface {
	// Get 读取 key，不存在时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set 整体覆盖写入 key
	Set(ctx context.Context, key, value string) error
	Close() error
}

// NewKV 根据配置创建键值存储
func NewKV(cfg config.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileKV(cfg.Dir)
	case "postgres":
		return NewPostgresKV(cfg.DB)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileKV 每个 key 对应数据目录下的一个 JSON 文件
type FileKV struct {
	dir string
}

// NewFileKV 创建文件存储，目录不存在时自动创建
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get 实现 KV
func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Set 实现 KV，先写临时文件再重命名，避免写一半的快照
func (f *FileKV) Set(_ context.Context, key, value string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Close 实现 KV
func (f *FileKV) Close() error { return nil }
