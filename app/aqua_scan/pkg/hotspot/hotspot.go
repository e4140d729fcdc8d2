package hotspot

import (
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/dashboard"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

const (
	earthRadiusMeters = 6371010.0
	// 圆形区域近似为多边形时的顶点数
	zoneVertices = 32

	criticalBelow = 50
	safeFrom      = 80
)

// Marker 一条带位置的历史记录
type Marker struct {
	ID        string       `json:"id"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	RiskLevel dm.RiskLevel `json:"riskLevel"`
	Color     string       `json:"color"`
	Date      string       `json:"date"`
	Score     float64      `json:"score"`
	Popup     string       `json:"popup"`
}

// Zone 区域热点圆
type Zone struct {
	ID            string  `json:"id"`
	Region        string  `json:"region"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusMeters  float64 `json:"radiusMeters"`
	Color         string  `json:"color"`
	AvgScore      float64 `json:"avgScore"`
	DominantIssue string  `json:"dominantIssue"`
	Popup         string  `json:"popup"`
}

// Stats 地图页顶部统计
type Stats struct {
	CriticalZones int `json:"criticalZones"`
	Samples       int `json:"samples"`
	SafeZones     int `json:"safeZones"`
}

// Map 地图视图，每次调用完整重建
type Map struct {
	Center  dm.Location `json:"center"`
	Zoom    int         `json:"zoom"`
	Markers []Marker    `json:"markers"`
	Zones   []Zone      `json:"zones"`
	Stats   Stats       `json:"stats"`
}

// Renderer 地图渲染器
type Renderer struct {
	cfg      config.MapConfig
	hotspots []dm.Hotspot
}

// NewRenderer 创建地图渲染器
func NewRenderer(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg.Map, hotspots: cfg.Hotspots}
}

// Hotspots 返回区域种子数据
func (r *Renderer) Hotspots() []dm.Hotspot {
	out := make([]dm.Hotspot, len(r.hotspots))
	copy(out, r.hotspots)
	return out
}

// Render 生成地图视图
func (r *Renderer) Render(history []dm.AnalysisResult) Map {
	center := r.Center(history)
	m := Map{
		Center:  center,
		Zoom:    r.cfg.Zoom,
		Markers: make([]Marker, 0, len(history)),
		Zones:   make([]Zone, 0, len(r.hotspots)),
		Stats:   ComputeStats(r.hotspots, history),
	}

	for _, h := range history {
		if h.Location == nil {
			continue
		}
		_, color := dashboard.RiskStyle(h.RiskLevel)
		date := h.Timestamp.Format("2006-01-02")
		m.Markers = append(m.Markers, Marker{
			ID:        h.ID,
			Latitude:  h.Location.Latitude,
			Longitude: h.Location.Longitude,
			RiskLevel: h.RiskLevel,
			Color:     color,
			Date:      date,
			Score:     h.Score,
			Popup:     fmt.Sprintf("%s | %s | Score: %v/100", h.RiskLevel, date, h.Score),
		})
	}

	for _, hs := range r.hotspots {
		lat, lng := Position(hs, center)
		m.Zones = append(m.Zones, Zone{
			ID:            hs.ID,
			Region:        hs.Region,
			Latitude:      lat,
			Longitude:     lng,
			RadiusMeters:  r.cfg.ZoneRadiusMeters,
			Color:         ZoneColor(hs.AvgScore),
			AvgScore:      hs.AvgScore,
			DominantIssue: hs.DominantIssue,
			Popup:         fmt.Sprintf("%s | Avg Quality: %v%% | Issue: %s", hs.Region, hs.AvgScore, hs.DominantIssue),
		})
	}
	return m
}

// Center 第一条带位置的历史记录，没有则使用默认中心
func (r *Renderer) Center(history []dm.AnalysisResult) dm.Location {
	for _, h := range history {
		if h.Location != nil {
			return dm.Location{Latitude: h.Location.Latitude, Longitude: h.Location.Longitude}
		}
	}
	return dm.Location{Latitude: r.cfg.FallbackLatitude, Longitude: r.cfg.FallbackLongitude}
}

// Position 热点的实际坐标
// 有真实坐标时直接使用，否则把 [0,100] 的抽象坐标投影到地图中心附近
func Position(hs dm.Hotspot, center dm.Location) (lat, lng float64) {
	if hs.Location != nil {
		return hs.Location.Latitude, hs.Location.Longitude
	}
	return center.Latitude + (hs.GridLat-50)/100, center.Longitude + (hs.GridLng-50)/100
}

// ZoneColor 平均分低于 50 为红色，其余为琥珀色
func ZoneColor(avgScore float64) string {
	if avgScore < criticalBelow {
		return dashboard.ColorUnsafe
	}
	return dashboard.ColorCaution
}

// ComputeStats 统计高危区域、样本数与安全区域
func ComputeStats(hotspots []dm.Hotspot, history []dm.AnalysisResult) Stats {
	s := Stats{Samples: len(history)}
	for _, hs := range hotspots {
		if hs.AvgScore < criticalBelow {
			s.CriticalZones++
		}
		if hs.AvgScore >= safeFrom {
			s.SafeZones++
		}
	}
	return s
}

// GeoJSON 导出标记点与区域多边形
func (m Map) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, mk := range m.Markers {
		f := geojson.NewPointFeature([]float64{mk.Longitude, mk.Latitude})
		f.SetProperty("kind", "sample")
		f.SetProperty("id", mk.ID)
		f.SetProperty("riskLevel", string(mk.RiskLevel))
		f.SetProperty("color", mk.Color)
		f.SetProperty("score", mk.Score)
		f.SetProperty("date", mk.Date)
		f.SetProperty("popup", mk.Popup)
		fc.AddFeature(f)
	}
	for _, z := range m.Zones {
		f := geojson.NewPolygonFeature([][][]float64{Circle(z.Latitude, z.Longitude, z.RadiusMeters, zoneVertices)})
		f.SetProperty("kind", "zone")
		f.SetProperty("id", z.ID)
		f.SetProperty("region", z.Region)
		f.SetProperty("color", z.Color)
		f.SetProperty("avgScore", z.AvgScore)
		f.SetProperty("dominantIssue", z.DominantIssue)
		f.SetProperty("radiusMeters", z.RadiusMeters)
		f.SetProperty("popup", z.Popup)
		fc.AddFeature(f)
	}
	return fc
}

// Circle 球面上的圆近似为闭合多边形，坐标顺序为 [lng, lat]
func Circle(lat, lng, radiusMeters float64, n int) [][]float64 {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	loop := s2.RegularLoop(center, s1.Angle(radiusMeters/earthRadiusMeters), n)

	ring := make([][]float64, 0, loop.NumVertices()+1)
	for _, v := range loop.Vertices() {
		ll := s2.LatLngFromPoint(v)
		ring = append(ring, []float64{ll.Lng.Degrees(), ll.Lat.Degrees()})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}
