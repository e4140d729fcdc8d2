package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

func f(v float64) *float64 { return &v }

func TestRenderBanner(t *testing.T) {
	b := RenderBanner(dm.AnalysisResult{RiskLevel: dm.RiskSafe, Score: 91})
	assert.Equal(t, ToneGreen, b.Tone)
	assert.Equal(t, ColorSafe, b.Color)
	assert.Equal(t, "91%", b.ScoreLabel)

	b = RenderBanner(dm.AnalysisResult{RiskLevel: dm.RiskCaution, Score: 55.5})
	assert.Equal(t, ToneAmber, b.Tone)
	assert.Equal(t, "55.5%", b.ScoreLabel)

	b = RenderBanner(dm.AnalysisResult{RiskLevel: dm.RiskUnsafe, Score: 0})
	assert.Equal(t, ToneRed, b.Tone)
	assert.Equal(t, ColorUnsafe, b.Color)
	assert.Equal(t, "0%", b.ScoreLabel)
}

func TestRenderParameters(t *testing.T) {
	low := "Low"
	params := RenderParameters(dm.WaterParameters{PH: f(7), TDS: f(150), Turbidity: &low})
	require.Len(t, params, 5)
	assert.Equal(t, Parameter{Label: "pH Level", Value: "7"}, params[0])
	assert.Equal(t, "150", params[1].Value)
	assert.Equal(t, Missing, params[2].Value)
	assert.Equal(t, "Low", params[3].Value)
	assert.Equal(t, Missing, params[4].Value)

	for _, p := range RenderParameters(dm.WaterParameters{}) {
		assert.Equal(t, Missing, p.Value, p.Label)
	}
}

func TestRenderAlerts(t *testing.T) {
	assert.Empty(t, RenderAlerts(nil))

	alerts := RenderAlerts([]dm.HealthAlert{
		{Title: "Nitrates", Severity: dm.SeverityMedium},
		{Title: "Lead", Severity: dm.SeverityHigh},
	})
	require.Len(t, alerts, 2)
	assert.Equal(t, "Nitrates", alerts[0].Title)
	assert.Equal(t, ToneAmber, alerts[0].Tone)
	assert.False(t, alerts[0].Strong)
	assert.Equal(t, ToneRose, alerts[1].Tone)
	assert.True(t, alerts[1].Strong)
}

func TestClassify(t *testing.T) {
	cases := map[string]RecKind{
		"Boil for 5 mins":            RecBoil,
		"Use carbon FILTER":          RecFilter,
		"Avoid completely":           RecAvoid,
		"Stop drinking":              RecAvoid,
		"Report to local council":    RecReport,
		"Call the health office":     RecReport,
		"Store in a clean container": RecOther,
	}
	for rec, want := range cases {
		got, _ := Classify(rec)
		assert.Equal(t, want, got, rec)
	}
	// 先匹配先生效
	got, _ := Classify("Boil, then filter")
	assert.Equal(t, RecBoil, got)

	_, icon := Classify("anything")
	assert.Equal(t, "check", icon)
}

func TestTrend(t *testing.T) {
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	var history []dm.AnalysisResult
	// 最新在前
	for i := 9; i >= 0; i-- {
		history = append(history, dm.AnalysisResult{
			Score:     float64(i),
			Timestamp: base.Add(time.Duration(i) * 10 * time.Minute),
		})
	}

	trend := Trend(history, time.UTC)
	require.Len(t, trend, TrendSize)
	assert.Equal(t, 3.0, trend[0].Score)
	assert.Equal(t, 9.0, trend[6].Score)
	assert.Equal(t, "08:30", trend[0].Label)
	assert.Equal(t, "09:30", trend[6].Label)

	short := Trend(history[:2], time.UTC)
	require.Len(t, short, 2)
	assert.Equal(t, 8.0, short[0].Score)

	assert.Empty(t, Trend(nil, nil))
}

func TestTrend_LabelsUseDisplayZone(t *testing.T) {
	history := []dm.AnalysisResult{{Score: 80, Timestamp: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}}

	kolkata := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, "15:00", Trend(history, kolkata)[0].Label)

	assert.Equal(t, history[0].Timestamp.Local().Format("15:04"), Trend(history, nil)[0].Label)
}

func TestRender(t *testing.T) {
	r := dm.AnalysisResult{
		RiskLevel:       dm.RiskSafe,
		Score:           91,
		Parameters:      dm.WaterParameters{Contaminants: []string{"E. coli"}},
		Recommendations: []string{"Boil for 5 mins"},
	}
	v := Render(r, []dm.AnalysisResult{r}, time.UTC)
	assert.Equal(t, "91%", v.Banner.ScoreLabel)
	assert.Equal(t, []string{"E. coli"}, v.Contaminants)
	assert.Empty(t, v.Alerts)
	require.Len(t, v.Recommendations, 1)
	assert.Equal(t, "flame", v.Recommendations[0].Icon)
	assert.Len(t, v.Trend, 1)
}
