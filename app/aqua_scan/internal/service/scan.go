package service

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	geojson "github.com/paulmach/go.geojson"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/internal/shell"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/analyzer"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/dashboard"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/hotspot"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/i18n"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/imaging"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// 错误原因，返回给前端
const (
	ReasonInvalidInput       = "INVALID_INPUT"
	ReasonAnalysisFailed     = "ANALYSIS_FAILED"
	ReasonAnalysisInProgress = "ANALYSIS_IN_PROGRESS"
	ReasonResultNotFound     = "RESULT_NOT_FOUND"
	ReasonNoResult           = "NO_RESULT"
)

// ScanRequest 提交分析请求
type ScanRequest struct {
	// Image data URI 或纯 base64
	Image    string        `json:"image,omitempty"`
	Manual   *dm.DroneData `json:"manual,omitempty"`
	Location *dm.Location  `json:"location,omitempty"`
}

// StateReply 会话状态与当前语言的文案
type StateReply struct {
	shell.State
	Strings   i18n.Strings  `json:"strings"`
	Languages []dm.Language `json:"languages"`
}

// ScanReply 分析结果与仪表盘视图
type ScanReply struct {
	Result    *dm.AnalysisResult `json:"result"`
	Dashboard dashboard.View     `json:"dashboard"`
}

// ScanService 对外服务，负责参数转换与错误映射
type ScanService struct {
	shell    *shell.Shell
	renderer *hotspot.Renderer
	loc      *time.Location
	log      *log.Helper
}

// NewScanService 创建服务
func NewScanService(c *config.Config, sh *shell.Shell, renderer *hotspot.Renderer, logger log.Logger) *ScanService {
	return &ScanService{
		shell:    sh,
		renderer: renderer,
		loc:      c.Location(),
		log:      log.NewHelper(logger),
	}
}

// State 当前会话状态
func (s *ScanService) State(_ context.Context) *StateReply {
	return stateReply(s.shell.Snapshot())
}

func stateReply(st shell.State) *StateReply {
	return &StateReply{State: st, Strings: i18n.For(st.Language), Languages: dm.Languages}
}

// Dashboard 当前结果的仪表盘
func (s *ScanService) Dashboard(_ context.Context) (*dashboard.View, error) {
	st := s.shell.Snapshot()
	if st.Current == nil {
		return nil, kerrors.NotFound(ReasonNoResult, "no analysis result yet")
	}
	v := dashboard.Render(*st.Current, st.History, s.loc)
	return &v, nil
}

// History 历史记录，最新在前
func (s *ScanService) History(_ context.Context) []dm.AnalysisResult {
	return s.shell.Snapshot().History
}

// Map 地图视图
func (s *ScanService) Map(_ context.Context) hotspot.Map {
	return s.renderer.Render(s.shell.Snapshot().History)
}

// GeoJSON 地图视图的 GeoJSON 导出
func (s *ScanService) GeoJSON(ctx context.Context) *geojson.FeatureCollection {
	return s.Map(ctx).GeoJSON()
}

// Hotspots 区域种子数据
func (s *ScanService) Hotspots(_ context.Context) []dm.Hotspot {
	return s.renderer.Hotspots()
}

// Scan 提交一次分析
func (s *ScanService) Scan(ctx context.Context, req *ScanRequest) (*ScanReply, error) {
	in := shell.Input{Manual: req.Manual, Location: req.Location}
	if req.Image != "" {
		data, err := imaging.DecodeDataURI(req.Image)
		if err != nil {
			return nil, kerrors.BadRequest(ReasonInvalidInput, err.Error())
		}
		in.Image = data
	}

	res, err := s.shell.Submit(ctx, in)
	if err != nil {
		return nil, s.toError(err)
	}
	st := s.shell.Snapshot()
	return &ScanReply{Result: res, Dashboard: dashboard.Render(*res, st.History, s.loc)}, nil
}

// Navigate 切换页面
func (s *ScanService) Navigate(_ context.Context, view string) (*StateReply, error) {
	st, err := s.shell.Navigate(shell.View(view))
	if err != nil {
		return nil, s.toError(err)
	}
	return stateReply(st), nil
}

// Select 选择历史记录
func (s *ScanService) Select(_ context.Context, id string) (*StateReply, error) {
	st, err := s.shell.Select(id)
	if err != nil {
		return nil, s.toError(err)
	}
	return stateReply(st), nil
}

// SetLanguage 切换语言
func (s *ScanService) SetLanguage(_ context.Context, lang string) (*StateReply, error) {
	l, err := dm.ParseLanguage(lang)
	if err != nil {
		return nil, kerrors.BadRequest(ReasonInvalidInput, err.Error())
	}
	return stateReply(s.shell.SetLanguage(l)), nil
}

// toError 将领域错误转换为 kratos 错误
func (s *ScanService) toError(err error) error {
	switch {
	case errors.Is(err, analyzer.ErrInvalidRequest):
		return kerrors.BadRequest(ReasonInvalidInput, err.Error())
	case errors.Is(err, shell.ErrUnknownView):
		return kerrors.BadRequest(ReasonInvalidInput, err.Error())
	case errors.Is(err, shell.ErrBusy):
		return kerrors.Conflict(ReasonAnalysisInProgress, err.Error())
	case errors.Is(err, shell.ErrNotFound):
		return kerrors.NotFound(ReasonResultNotFound, err.Error())
	case errors.Is(err, shell.ErrNoResult):
		return kerrors.NotFound(ReasonNoResult, err.Error())
	case errors.Is(err, analyzer.ErrAnalysisFailed):
		return kerrors.ServiceUnavailable(ReasonAnalysisFailed, "AI analysis failed")
	}
	s.log.Errorf("unexpected error: %v", err)
	return kerrors.InternalServer("INTERNAL", err.Error())
}
