package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

const sampleYAML = `
server:
  addr: 127.0.0.1:9000
llm:
  base_url: https://api.example.com/v1
  api_key: sk-test
  model: vision-mini
geo:
  provider: static
  timeout: 2s
  static:
    latitude: 28.61
    longitude: 77.20
storage:
  driver: file
  dir: /tmp/aquascan
hotspots:
  - id: a
    region: Lake Shore
    avg_score: 49
    risk_count: 3
    dominant_issue: Algae
    grid_lat: 10
    grid_lng: 90
language: Hindi
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "vision-mini", cfg.LLM.Model)
	assert.Equal(t, 2*time.Second, cfg.Geo.Timeout)
	assert.Equal(t, 28.61, cfg.Geo.Static.Latitude)
	require.Len(t, cfg.Hotspots, 1)
	assert.Equal(t, 49.0, cfg.Hotspots[0].AvgScore)
	assert.Equal(t, model.Hindi, cfg.DefaultLanguage())

	// 未在 YAML 中出现的字段保留默认值
	assert.Equal(t, "aquascan_history", cfg.Storage.Key)
	assert.Equal(t, 1024, cfg.Image.MaxDimension)
	assert.Equal(t, 37.7749, cfg.Map.FallbackLatitude)
}

func TestParse_DefaultHotspots(t *testing.T) {
	cfg, err := Parse([]byte("llm: {api_key: k, model: m}\n"))
	require.NoError(t, err)
	assert.Len(t, cfg.Hotspots, 5)
	assert.Equal(t, 5*time.Second, cfg.Geo.Timeout)
	assert.Equal(t, model.English, cfg.DefaultLanguage())
}

func TestParse_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("AQUASCAN_LLM_API_KEY", "sk-from-env")
	t.Setenv("AQUASCAN_DB_PASSWORD", "pw")

	cfg, err := Parse([]byte("llm: {model: m}\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, "pw", cfg.Storage.DB.Password)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing api key":  "llm: {model: m}\n",
		"unknown driver":   "llm: {api_key: k, model: m}\nstorage: {driver: redis}\n",
		"unknown provider": "llm: {api_key: k, model: m}\ngeo: {provider: gps}\n",
		"bad language":     "llm: {api_key: k, model: m}\nlanguage: French\n",
		"bad yaml":         "llm: [",
		"bad time zone":    "llm: {api_key: k, model: m}\ntime_zone: Mars/Olympus\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg, err := Parse([]byte("llm: {api_key: k, model: m}\ntime_zone: UTC\n"))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.Location())

	assert.Equal(t, time.Local, Default().Location())
}
