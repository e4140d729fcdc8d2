package model

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel 水样安全等级
type RiskLevel string

const (
	RiskSafe    RiskLevel = "SAFE"
	RiskCaution RiskLevel = "CAUTION"
	RiskUnsafe  RiskLevel = "UNSAFE"
)

// ParseRiskLevel 解析安全等级，大小写不敏感
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskSafe:
		return RiskSafe, nil
	case RiskCaution:
		return RiskCaution, nil
	case RiskUnsafe:
		return RiskUnsafe, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Severity 健康警报严重程度
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Location 经纬度坐标
type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RegionName string  `json:"regionName,omitempty"`
}

// WaterParameters 模型推断出的水质参数，全部可选
type WaterParameters struct {
	PH           *float64 `json:"pH,omitempty"`
	TDS          *float64 `json:"tds,omitempty"` // ppm
	Turbidity    *string  `json:"turbidity,omitempty"`
	Nitrates     *float64 `json:"nitrates,omitempty"`
	Chlorine     *float64 `json:"chlorine,omitempty"`
	Contaminants []string `json:"contaminants,omitempty"`
}

// HealthAlert 具体的健康风险提示
type HealthAlert struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// AnalysisResult 一次水样分析的结果，创建后不可修改
type AnalysisResult struct {
	ID                string          `json:"id,omitempty"`
	RiskLevel         RiskLevel       `json:"riskLevel"`
	Score             float64         `json:"score"` // 0-100
	Summary           string          `json:"summary"`
	SimpleExplanation string          `json:"simpleExplanation"`
	Parameters        WaterParameters `json:"parameters"`
	Alerts            []HealthAlert   `json:"alerts"`
	Recommendations   []string        `json:"recommendations"`
	Timestamp         time.Time       `json:"timestamp"`
	Location          *Location       `json:"location,omitempty"`
	// Flagged 表示评分与安全等级方向不一致
	Flagged bool `json:"flagged,omitempty"`
}

// WithLocation 返回附带位置信息的副本
func (r AnalysisResult) WithLocation(loc *Location) AnalysisResult {
	if loc != nil {
		l := *loc
		r.Location = &l
	}
	return r
}

// Turbidity 浑浊度分级
const (
	TurbidityLow    = "Low"
	TurbidityMedium = "Medium"
	TurbidityHigh   = "High"
)

// DroneData 手动录入（无人机遥测）的传感器读数
type DroneData struct {
	PH        float64 `json:"pH" validate:"min=0,max=14"`
	TDS       float64 `json:"tds" validate:"min=0"`
	Turbidity string  `json:"turbidity" validate:"oneof=Low Medium High"`
	Chlorine  float64 `json:"chlorine" validate:"min=0"`
}

// DefaultDroneData 表单默认值
func DefaultDroneData() DroneData {
	return DroneData{PH: 7.0, TDS: 150, Turbidity: TurbidityLow, Chlorine: 0.2}
}

// Hotspot 区域水质聚合数据（静态种子）
type Hotspot struct {
	ID            string  `json:"id" yaml:"id"`
	Region        string  `json:"region" yaml:"region"`
	AvgScore      float64 `json:"avgScore" yaml:"avg_score"`
	RiskCount     int     `json:"riskCount" yaml:"risk_count"`
	DominantIssue string  `json:"dominantIssue" yaml:"dominant_issue"`
	// GridLat / GridLng 是 [0,100] 的抽象坐标
	GridLat float64 `json:"gridLat" yaml:"grid_lat"`
	GridLng float64 `json:"gridLng" yaml:"grid_lng"`
	// Location 真实坐标，设置后优先于抽象坐标
	Location *Location `json:"location,omitempty" yaml:"location"`
}

// DefaultHotspots 默认的区域种子数据
func DefaultHotspots() []Hotspot {
	return []Hotspot{
		{ID: "1", Region: "North District", AvgScore: 42, RiskCount: 15, DominantIssue: "High Fluoride", GridLat: 25, GridLng: 30},
		{ID: "2", Region: "East Riverside", AvgScore: 88, RiskCount: 2, DominantIssue: "Minor Silt", GridLat: 65, GridLng: 45},
		{ID: "3", Region: "Central Valley", AvgScore: 31, RiskCount: 24, DominantIssue: "Nitrate Pollution", GridLat: 45, GridLng: 60},
		{ID: "4", Region: "West Highlands", AvgScore: 92, RiskCount: 0, DominantIssue: "None", GridLat: 20, GridLng: 75},
		{ID: "5", Region: "South Plains", AvgScore: 55, RiskCount: 8, DominantIssue: "Lead Suspicion", GridLat: 75, GridLng: 80},
	}
}

// Language 界面与模型输出语言
type Language string

const (
	English Language = "English"
	Spanish Language = "Spanish"
	Hindi   Language = "Hindi"
)

// Languages 支持的语言列表
var Languages = []Language{English, Spanish, Hindi}

// ParseLanguage 解析语言名称或代码
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, nil
	case "spanish", "español", "espanol", "es":
		return Spanish, nil
	case "hindi", "हिन्दी", "hi":
		return Hindi, nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}
