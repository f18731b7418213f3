package explorer

import (
	"testing"

	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/stretchr/testify/assert"
)

func TestResultRange(t *testing.T) {
	cases := []struct {
		page, total, rows int
		start, end        int
	}{
		{page: 1, total: 42, rows: 10, start: 1, end: 10},
		{page: 2, total: 25, rows: 10, start: 11, end: 20},
		{page: 3, total: 25, rows: 5, start: 21, end: 25},
		{page: 1, total: 42, rows: 5, start: 1, end: 5},
		{page: 1, total: 3, rows: 3, start: 1, end: 3},
	}
	for _, tc := range cases {
		start, end := ResultRange(tc.page, users.PageSize, tc.total, tc.rows)
		assert.Equal(t, tc.start, start, "page %d", tc.page)
		assert.Equal(t, tc.end, end, "page %d", tc.page)
	}
}

func TestSortIndicator(t *testing.T) {
	v := users.DefaultViewState()
	assert.Equal(t, IndicatorAsc, SortIndicator(v, users.SortByID))
	assert.Equal(t, IndicatorNeutral, SortIndicator(v, users.SortByAge))

	v.SortKey = users.SortByAge
	v.SortOrder = users.OrderDesc
	assert.Equal(t, IndicatorDesc, SortIndicator(v, users.SortByAge))
	assert.Equal(t, IndicatorNeutral, SortIndicator(v, users.SortByID))
}

func TestPresentStates(t *testing.T) {
	base := Snapshot{View: users.DefaultViewState()}

	t.Run("loading", func(t *testing.T) {
		s := base
		s.Result = Result{Users: makeUsers(1, 3), Loading: true, TotalPages: 1}
		p := Present(s)
		assert.Equal(t, StatusLoading, p.Status)
		assert.False(t, p.Empty)
		assert.False(t, p.FooterVisible)
	})

	t.Run("error", func(t *testing.T) {
		s := base
		s.Result = Result{Users: []users.User{}, Error: "Error: 503"}
		p := Present(s)
		assert.Equal(t, StatusError, p.Status)
		assert.Equal(t, "Error: 503", p.Error)
		assert.False(t, p.Empty)
		assert.False(t, p.FooterVisible)
		assert.Equal(t, 1, p.TotalPages)
	})

	t.Run("empty", func(t *testing.T) {
		s := base
		s.View.Search = "zzz"
		s.Result = Result{Users: []users.User{}, Total: 0, TotalPages: 0}
		p := Present(s)
		assert.Equal(t, StatusReady, p.Status)
		assert.True(t, p.Empty)
		assert.False(t, p.FooterVisible)
		assert.True(t, p.ClearVisible)
		assert.True(t, p.PrevDisabled)
		assert.True(t, p.NextDisabled)
	})

	t.Run("last page", func(t *testing.T) {
		s := base
		s.View.Page = 3
		s.Result = Result{Users: makeUsers(21, 5), Total: 25, TotalPages: 3}
		p := Present(s)
		assert.True(t, p.FooterVisible)
		assert.False(t, p.PrevDisabled)
		assert.True(t, p.NextDisabled)
		assert.Equal(t, 21, p.RangeStart)
		assert.Equal(t, 25, p.RangeEnd)
		assert.False(t, p.ClearVisible, "page alone is not a filter")
	})
}

func TestPresentColumnsFollowSortKeys(t *testing.T) {
	p := Present(Snapshot{View: users.DefaultViewState(), Result: Result{TotalPages: 1}})
	keys := make([]users.SortKey, 0, len(p.Columns))
	for _, col := range p.Columns {
		keys = append(keys, col.Key)
	}
	assert.Equal(t, users.SortKeys, keys)
	assert.Equal(t, IndicatorAsc, p.Columns[0].Indicator)
}
