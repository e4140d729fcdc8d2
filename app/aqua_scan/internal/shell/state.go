package shell

import (
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/i18n"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

// View 当前显示的页面
type View string

const (
	ViewScan      View = "scan"
	ViewDashboard View = "dashboard"
	ViewHistory   View = "history"
	ViewMap       View = "map"
)

// ParseView 解析页面名称
func ParseView(s string) (View, bool) {
	switch v := View(s); v {
	case ViewScan, ViewDashboard, ViewHistory, ViewMap:
		return v, true
	}
	return "", false
}

// State 会话状态
type State struct {
	View      View                `json:"view"`
	Current   *dm.AnalysisResult  `json:"current,omitempty"`
	History   []dm.AnalysisResult `json:"history"`
	Language  dm.Language         `json:"language"`
	Analyzing bool                `json:"analyzing"`
	Notice    string              `json:"notice,omitempty"`
}

// Initial 启动时的状态
func Initial(lang dm.Language, history []dm.AnalysisResult) State {
	if history == nil {
		history = []dm.AnalysisResult{}
	}
	return State{View: ViewScan, History: history, Language: lang}
}

// Event 状态变化事件
type Event interface {
	apply(State) State
}

// Navigate 切换页面，没有当前结果时不能进入仪表盘
type Navigate struct{ View View }

// SubmitStarted 开始分析
type SubmitStarted struct{}

// SubmitSucceeded 分析完成，History 为存储返回的最新快照
type SubmitSucceeded struct {
	Result  dm.AnalysisResult
	History []dm.AnalysisResult
}

// SubmitFailed 分析失败；Invalid 表示输入本身不合法
type SubmitFailed struct{ Invalid bool }

// SelectHistory 从历史记录中选择一条
type SelectHistory struct{ ID string }

// SetLanguage 切换语言
type SetLanguage struct{ Language dm.Language }

// Reduce 纯函数，根据事件计算新状态
func Reduce(s State, e Event) State {
	return e.apply(s)
}

func (e Navigate) apply(s State) State {
	if _, ok := ParseView(string(e.View)); !ok {
		return s
	}
	if e.View == ViewDashboard && s.Current == nil {
		return s
	}
	s.View = e.View
	s.Notice = ""
	return s
}

func (SubmitStarted) apply(s State) State {
	s.Analyzing = true
	s.Notice = ""
	return s
}

func (e SubmitSucceeded) apply(s State) State {
	r := e.Result
	s.Current = &r
	s.History = e.History
	s.View = ViewDashboard
	s.Analyzing = false
	s.Notice = ""
	return s
}

func (e SubmitFailed) apply(s State) State {
	s.View = ViewScan
	s.Analyzing = false
	if e.Invalid {
		s.Notice = i18n.For(s.Language).InvalidInput
	} else {
		s.Notice = i18n.For(s.Language).AnalysisError
	}
	return s
}

func (e SelectHistory) apply(s State) State {
	for i := range s.History {
		if s.History[i].ID == e.ID {
			r := s.History[i]
			s.Current = &r
			s.View = ViewDashboard
			s.Notice = ""
			return s
		}
	}
	return s
}

func (e SetLanguage) apply(s State) State {
	s.Language = e.Language
	return s
}
