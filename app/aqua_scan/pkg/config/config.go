package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// envPrefix 环境变量前缀，例如 AQUASCAN_LLM_API_KEY
const envPrefix = "AQUASCAN"

// Config 项目配置结构体
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Storage     StorageConfig     `yaml:"storage"`
	Geo         GeoConfig         `yaml:"geo"`
	Image       ImageConfig       `yaml:"image"`
	Map         MapConfig         `yaml:"map"`
	Hotspots    []model.Hotspot   `yaml:"hotspots" validate:"dive"`
	Language    string            `yaml:"language" validate:"omitempty,oneof=English Spanish Hindi"`
	TimeZone    string            `yaml:"time_zone" validate:"omitempty,timezone"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string        `yaml:"addr" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"LLM_BASE_URL" validate:"omitempty,url"`
	APIKey  string        `yaml:"api_key" envconfig:"LLM_API_KEY" validate:"required"`
	Model   string        `yaml:"model" envconfig:"LLM_MODEL" validate:"required"`
	Timeout time.Duration `yaml:"timeout" envconfig:"LLM_TIMEOUT"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps" validate:"min=1"`
	RPM int `yaml:"rpm" validate:"min=1"`
}

// BreakerConfig 熔断配置
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" validate:"min=1"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// StorageConfig 本地历史记录存储配置
type StorageConfig struct {
	Driver string   `yaml:"driver" validate:"oneof=file postgres"`
	Key    string   `yaml:"key" validate:"required"`
	Dir    string   `yaml:"dir" validate:"required_if=Driver file"`
	DB     DBConfig `yaml:"db"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name     string `yaml:"name" envconfig:"DB_NAME"`
}

// GeoConfig 定位配置
type GeoConfig struct {
	Provider string        `yaml:"provider" validate:"oneof=none static ipapi"`
	Timeout  time.Duration `yaml:"timeout"`
	Static   StaticConfig  `yaml:"static"`
	IPAPI    IPAPIConfig   `yaml:"ipapi"`
}

// StaticConfig 固定坐标
type StaticConfig struct {
	Latitude  float64 `yaml:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `yaml:"longitude" validate:"min=-180,max=180"`
}

// IPAPIConfig IP 定位服务配置
type IPAPIConfig struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// ImageConfig 图片预处理配置
type ImageConfig struct {
	MaxDimension int `yaml:"max_dimension" validate:"min=64"`
	Quality      int `yaml:"quality" validate:"min=1,max=100"`
}

// MapConfig 地图配置
type MapConfig struct {
	FallbackLatitude  float64 `yaml:"fallback_latitude" validate:"min=-90,max=90"`
	FallbackLongitude float64 `yaml:"fallback_longitude" validate:"min=-180,max=180"`
	Zoom              int     `yaml:"zoom" validate:"min=1,max=20"`
	ZoneRadiusMeters  float64 `yaml:"zone_radius_meters" validate:"gt=0"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server:      ServerConfig{Addr: "0.0.0.0:8000", Timeout: 90 * time.Second},
		LLM:         LLMConfig{Timeout: 60 * time.Second},
		Log:         LogConfig{Level: "info"},
		Concurrency: ConcurrencyConfig{QPS: 1, RPM: 30},
		Breaker:     BreakerConfig{MaxFailures: 5, OpenTimeout: 30 * time.Second},
		Storage:     StorageConfig{Driver: "file", Key: "aquascan_history", Dir: "data"},
		Geo:         GeoConfig{Provider: "none", Timeout: 5 * time.Second},
		Image:       ImageConfig{MaxDimension: 1024, Quality: 85},
		Map: MapConfig{
			FallbackLatitude:  37.7749,
			FallbackLongitude: -122.4194,
			Zoom:              12,
			ZoneRadiusMeters:  1000,
		},
		Hotspots: model.DefaultHotspots(),
		Language: string(model.English),
	}
}

// LoadConfig 从指定路径加载配置
// 顺序：默认值 -> YAML -> .env / 环境变量 -> 校验
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析 YAML 配置内容
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env 文件不存在时忽略，且不覆盖已有环境变量
	_ = godotenv.Load()
	if err := envconfig.Process(envPrefix, &cfg.LLM); err != nil {
		return nil, fmt.Errorf("read llm env: %w", err)
	}
	if err := envconfig.Process(envPrefix, &cfg.Storage.DB); err != nil {
		return nil, fmt.Errorf("read db env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultLanguage 配置的默认语言
func (c *Config) DefaultLanguage() model.Language {
	lang, err := model.ParseLanguage(c.Language)
	if err != nil {
		return model.English
	}
	return lang
}

// Location 界面时间的显示时区，未配置时使用服务器本地时区
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
