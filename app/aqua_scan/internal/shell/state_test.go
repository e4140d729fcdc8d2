package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/i18n"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

func TestReduce_DashboardRequiresResult(t *testing.T) {
	s := Initial(dm.English, nil)
	assert.Equal(t, ViewScan, s.View)
	assert.NotNil(t, s.History)

	s = Reduce(s, Navigate{View: ViewDashboard})
	assert.Equal(t, ViewScan, s.View)

	s = Reduce(s, Navigate{View: ViewHistory})
	assert.Equal(t, ViewHistory, s.View)

	s = Reduce(s, Navigate{View: View("bogus")})
	assert.Equal(t, ViewHistory, s.View)
}

func TestReduce_SubmitLifecycle(t *testing.T) {
	s := Initial(dm.Hindi, nil)
	s = Reduce(s, SubmitStarted{})
	assert.True(t, s.Analyzing)

	failed := Reduce(s, SubmitFailed{})
	assert.False(t, failed.Analyzing)
	assert.Equal(t, ViewScan, failed.View)
	assert.Equal(t, i18n.For(dm.Hindi).AnalysisError, failed.Notice)

	// 切换页面清除提示
	assert.Empty(t, Reduce(failed, Navigate{View: ViewMap}).Notice)

	r := dm.AnalysisResult{ID: "a", Score: 91}
	ok := Reduce(s, SubmitSucceeded{Result: r, History: []dm.AnalysisResult{r}})
	assert.False(t, ok.Analyzing)
	assert.Equal(t, ViewDashboard, ok.View)
	require.NotNil(t, ok.Current)
	assert.Equal(t, "a", ok.Current.ID)
	assert.Len(t, ok.History, 1)
}

func TestReduce_SelectHistory(t *testing.T) {
	history := []dm.AnalysisResult{{ID: "b", Score: 40}, {ID: "a", Score: 80}}
	s := Initial(dm.English, history)

	next := Reduce(s, SelectHistory{ID: "a"})
	assert.Equal(t, ViewDashboard, next.View)
	assert.Equal(t, 80.0, next.Current.Score)
	assert.Equal(t, history, next.History)

	same := Reduce(s, SelectHistory{ID: "zzz"})
	assert.Equal(t, s, same)
}

func TestReduce_SetLanguage(t *testing.T) {
	s := Reduce(Initial(dm.English, nil), SetLanguage{Language: dm.Spanish})
	assert.Equal(t, dm.Spanish, s.Language)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("map")
	assert.True(t, ok)
	assert.Equal(t, ViewMap, v)
	_, ok = ParseView("")
	assert.False(t, ok)
}
