package shell

import (
	"context"
	"errors"
	"sync"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/analyzer"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/imaging"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

var (
	// ErrBusy 已有分析正在进行
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrNotFound 历史记录中没有该结果
	ErrNotFound = errors.New("result not found")
	// ErrNoResult 还没有可展示的结果
	ErrNoResult = errors.New("no current result")
	// ErrUnknownView 未知页面
	ErrUnknownView = errors.New("unknown view")
)

// Analyzer 水样分析
type Analyzer interface {
	Validate(req analyzer.Request) error
	Analyze(ctx context.Context, req analyzer.Request) (*dm.AnalysisResult, error)
}

// Locator 尽力获取当前位置，失败返回 nil
type Locator interface {
	Current(ctx context.Context, hints ...*dm.Location) *dm.Location
}

// Store 历史记录存储
type Store interface {
	LoadAll(ctx context.Context) []dm.AnalysisResult
	Append(ctx context.Context, r dm.AnalysisResult) ([]dm.AnalysisResult, error)
}

// Input 一次提交的内容
type Input struct {
	Image  []byte
	Manual *dm.DroneData
	// Location 浏览器提供的位置
	Location *dm.Location
}

// Shell 会话外壳，串联定位、分析与存储
type Shell struct {
	mu       sync.Mutex
	state    State
	analyzer Analyzer
	locator  Locator
	store    Store
	log      *log.Helper
}

// NewShell 创建会话并恢复历史记录
func NewShell(cfg *config.Config, a Analyzer, locator Locator, store Store, logger log.Logger) *Shell {
	history := store.LoadAll(context.Background())
	return &Shell{
		state:    Initial(cfg.DefaultLanguage(), history),
		analyzer: a,
		locator:  locator,
		store:    store,
		log:      log.NewHelper(logger),
	}
}

func (s *Shell) dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
	return s.copyState()
}

// Submit 执行一次完整的分析流程
// 定位失败不影响分析；结果保存失败只记录日志
func (s *Shell) Submit(ctx context.Context, in Input) (*dm.AnalysisResult, error) {
	s.mu.Lock()
	if s.state.Analyzing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.state = Reduce(s.state, SubmitStarted{})
	lang := s.state.Language
	s.mu.Unlock()

	// 任何路径退出都要结束分析状态，panic 继续向上抛给 recovery
	settled := false
	defer func() {
		if !settled {
			s.dispatch(SubmitFailed{})
		}
	}()
	fail := func(err error) (*dm.AnalysisResult, error) {
		settled = true
		s.dispatch(SubmitFailed{Invalid: errors.Is(err, analyzer.ErrInvalidRequest)})
		return nil, err
	}

	req := analyzer.Request{Image: in.Image, Manual: in.Manual, Language: lang}
	if err := s.analyzer.Validate(req); err != nil {
		s.log.Warnf("Invalid submission: %v", err)
		return fail(err)
	}

	hints := []*dm.Location{in.Location}
	if len(in.Image) > 0 {
		hints = append(hints, imaging.GPSLocation(in.Image))
	}
	loc := s.locator.Current(ctx, hints...)

	out, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.log.Errorf("Analysis failed: %v", err)
		return fail(err)
	}

	r := out.WithLocation(loc)
	history, err := s.store.Append(ctx, r)
	if err != nil {
		s.log.Warnf("Failed to persist history: %v", err)
	}

	settled = true
	s.dispatch(SubmitSucceeded{Result: r, History: history})
	return &r, nil
}

// Navigate 切换页面
func (s *Shell) Navigate(view View) (State, error) {
	if _, ok := ParseView(string(view)); !ok {
		return s.Snapshot(), ErrUnknownView
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if view == ViewDashboard && s.state.Current == nil {
		return s.copyState(), ErrNoResult
	}
	s.state = Reduce(s.state, Navigate{View: view})
	return s.copyState(), nil
}

// Select 选择一条历史记录并在仪表盘展示
func (s *Shell) Select(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Reduce(s.state, SelectHistory{ID: id})
	if next.Current == nil || next.Current.ID != id {
		return s.copyState(), ErrNotFound
	}
	s.state = next
	return s.copyState(), nil
}

// SetLanguage 切换语言，只影响之后的分析和界面文案
func (s *Shell) SetLanguage(lang dm.Language) State {
	return s.dispatch(SetLanguage{Language: lang})
}

// Snapshot 当前状态副本
func (s *Shell) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

func (s *Shell) copyState() State {
	st := s.state
	st.History = append([]dm.AnalysisResult{}, s.state.History...)
	if s.state.Current != nil {
		r := *s.state.Current
		st.Current = &r
	}
	return st
}
