package dashboard

import (
	"strconv"
	"strings"
	"time"

	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// Missing 缺失参数的占位符
const Missing = "--"

// TrendSize 趋势图最多展示的点数
const TrendSize = 7

// Tone 展示色调
type Tone string

const (
	ToneGreen Tone = "green"
	ToneAmber Tone = "amber"
	ToneRed   Tone = "red"
	ToneRose  Tone = "rose"
)

// 风险等级对应的颜色，地图标记共用
const (
	ColorSafe    = "#10b981"
	ColorCaution = "#f59e0b"
	ColorUnsafe  = "#ef4444"
)

// Banner 顶部状态横幅
type Banner struct {
	RiskLevel   dm.RiskLevel `json:"riskLevel"`
	Tone        Tone         `json:"tone"`
	Color       string       `json:"color"`
	ScoreLabel  string       `json:"scoreLabel"`
	Explanation string       `json:"explanation"`
	Summary     string       `json:"summary"`
	Flagged     bool         `json:"flagged,omitempty"`
}

// Parameter 参数网格中的一格
type Parameter struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Alert 健康警报
type Alert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tone        Tone   `json:"tone"`
	Strong      bool   `json:"strong"`
}

// RecKind 建议的类别，仅用于选择图标
type RecKind string

const (
	RecBoil   RecKind = "boil"
	RecFilter RecKind = "filter"
	RecAvoid  RecKind = "avoid"
	RecReport RecKind = "report"
	RecOther  RecKind = "other"
)

// Recommendation 带图标的行动建议
type Recommendation struct {
	Text string  `json:"text"`
	Kind RecKind `json:"kind"`
	Icon string  `json:"icon"`
}

// TrendPoint 趋势图上的一个点
type TrendPoint struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// View 仪表盘完整视图
type View struct {
	Banner          Banner           `json:"banner"`
	Parameters      []Parameter      `json:"parameters"`
	Contaminants    []string         `json:"contaminants"`
	Alerts          []Alert          `json:"alerts"`
	Recommendations []Recommendation `json:"recommendations"`
	Trend           []TrendPoint     `json:"trend"`
}

// Render 根据当前结果和历史记录生成仪表盘视图
// 趋势图时间按 loc 显示，nil 表示服务器本地时区
func Render(current dm.AnalysisResult, history []dm.AnalysisResult, loc *time.Location) View {
	return View{
		Banner:          RenderBanner(current),
		Parameters:      RenderParameters(current.Parameters),
		Contaminants:    append([]string{}, current.Parameters.Contaminants...),
		Alerts:          RenderAlerts(current.Alerts),
		Recommendations: RenderRecommendations(current.Recommendations),
		Trend:           Trend(history, loc),
	}
}

// RenderBanner 生成状态横幅
func RenderBanner(r dm.AnalysisResult) Banner {
	tone, color := RiskStyle(r.RiskLevel)
	return Banner{
		RiskLevel:   r.RiskLevel,
		Tone:        tone,
		Color:       color,
		ScoreLabel:  ScoreLabel(r.Score),
		Explanation: r.SimpleExplanation,
		Summary:     r.Summary,
		Flagged:     r.Flagged,
	}
}

// RiskStyle 风险等级对应的色调与颜色
func RiskStyle(level dm.RiskLevel) (Tone, string) {
	switch level {
	case dm.RiskSafe:
		return ToneGreen, ColorSafe
	case dm.RiskCaution:
		return ToneAmber, ColorCaution
	default:
		return ToneRed, ColorUnsafe
	}
}

// ScoreLabel 评分文本，例如 91 -> "91%"
func ScoreLabel(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "%"
}

// RenderParameters 参数网格，缺失值显示占位符
func RenderParameters(p dm.WaterParameters) []Parameter {
	turbidity := Missing
	if p.Turbidity != nil && *p.Turbidity != "" {
		turbidity = *p.Turbidity
	}
	return []Parameter{
		{Label: "pH Level", Value: number(p.PH)},
		{Label: "TDS (ppm)", Value: number(p.TDS)},
		{Label: "Chlorine", Value: number(p.Chlorine)},
		{Label: "Turbidity", Value: turbidity},
		{Label: "Nitrates", Value: number(p.Nitrates)},
	}
}

func number(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// RenderAlerts 保持输入顺序，high 强调显示
func RenderAlerts(alerts []dm.HealthAlert) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		v := Alert{Title: a.Title, Description: a.Description, Tone: ToneAmber}
		if a.Severity == dm.SeverityHigh {
			v.Tone = ToneRose
			v.Strong = true
		}
		out = append(out, v)
	}
	return out
}

var recRules = []struct {
	kind     RecKind
	icon     string
	keywords []string
}{
	{RecBoil, "flame", []string{"boil"}},
	{RecFilter, "filter", []string{"filter"}},
	{RecAvoid, "ban", []string{"avoid", "stop"}},
	{RecReport, "megaphone", []string{"report", "call"}},
}

// Classify 按关键字顺序匹配建议类别，先匹配先生效
func Classify(rec string) (RecKind, string) {
	r := strings.ToLower(rec)
	for _, rule := range recRules {
		for _, kw := range rule.keywords {
			if strings.Contains(r, kw) {
				return rule.kind, rule.icon
			}
		}
	}
	return RecOther, "check"
}

// RenderRecommendations 为每条建议附上图标
func RenderRecommendations(recs []string) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		kind, icon := Classify(rec)
		out = append(out, Recommendation{Text: rec, Kind: kind, Icon: icon})
	}
	return out
}

// Trend 历史记录（最新在前）中最近的 7 条，按时间升序
func Trend(history []dm.AnalysisResult, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.Local
	}
	n := len(history)
	if n > TrendSize {
		n = TrendSize
	}
	out := make([]TrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		h := history[i]
		out = append(out, TrendPoint{Label: h.Timestamp.In(loc).Format("15:04"), Score: h.Score})
	}
	return out
}
