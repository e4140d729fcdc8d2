package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRiskLevel(t *testing.T) {
	for in, want := range map[string]RiskLevel{"SAFE": RiskSafe, "caution": RiskCaution, " Unsafe ": RiskUnsafe} {
		got, err := ParseRiskLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseRiskLevel("DANGER")
	assert.Error(t, err)
}

func TestParseLanguage(t *testing.T) {
	got, err := ParseLanguage("es")
	require.NoError(t, err)
	assert.Equal(t, Spanish, got)

	got, err = ParseLanguage("Hindi")
	require.NoError(t, err)
	assert.Equal(t, Hindi, got)

	_, err = ParseLanguage("klingon")
	assert.Error(t, err)
}

// 浏览器本地存储中的历史记录格式可以直接解析
func TestAnalysisResult_BrowserFormat(t *testing.T) {
	raw := `{"riskLevel":"CAUTION","score":64,"summary":"s","simpleExplanation":"e",
		"parameters":{"pH":6.4,"turbidity":"Medium"},
		"recommendations":["Boil for 5 mins"],
		"alerts":[{"title":"t","description":"d","severity":"medium"}],
		"timestamp":"2024-05-01T10:30:00.000Z",
		"location":{"latitude":12.5,"longitude":77.1}}`

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, RiskCaution, r.RiskLevel)
	assert.Equal(t, 64.0, r.Score)
	require.NotNil(t, r.Parameters.PH)
	assert.Equal(t, 6.4, *r.Parameters.PH)
	assert.Nil(t, r.Parameters.TDS)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), r.Timestamp.UTC())
	require.NotNil(t, r.Location)
	assert.Equal(t, 77.1, r.Location.Longitude)
}

func TestWithLocation_Copies(t *testing.T) {
	loc := &Location{Latitude: 1, Longitude: 2}
	r := AnalysisResult{}.WithLocation(loc)
	loc.Latitude = 9
	assert.Equal(t, 1.0, r.Location.Latitude)

	assert.Nil(t, AnalysisResult{}.WithLocation(nil).Location)
}
