package explorer

import "github.com/PabloPavan/data_explorer/internal/users"

type Indicator string

const (
	IndicatorNeutral Indicator = "neutral"
	IndicatorAsc     Indicator = "asc"
	IndicatorDesc    Indicator = "desc"
)

type Column struct {
	Key       users.SortKey
	Indicator Indicator
}

// Presentation is everything the users page renders, derived from a snapshot.
type Presentation struct {
	View       users.ViewState
	Status     Status
	Error      string
	Rows       []users.User
	Total      int
	TotalPages int
	Columns    []Column

	// Empty is true when the table renders the "no results" placeholder.
	Empty         bool
	ClearVisible  bool
	FooterVisible bool
	RangeStart    int
	RangeEnd      int
	PrevDisabled  bool
	NextDisabled  bool
}

func Present(s Snapshot) Presentation {
	v := s.View
	r := s.Result
	status := r.Status()

	p := Presentation{
		View:         v,
		Status:       status,
		Error:        r.Error,
		Rows:         r.Users,
		Total:        r.Total,
		TotalPages:   max(r.TotalPages, 1),
		ClearVisible: v.HasActiveFilters(),
		PrevDisabled: v.Page <= 1,
	}
	p.NextDisabled = v.Page >= p.TotalPages

	p.Columns = make([]Column, 0, len(users.SortKeys))
	for _, key := range users.SortKeys {
		p.Columns = append(p.Columns, Column{Key: key, Indicator: SortIndicator(v, key)})
	}

	if status == StatusReady {
		p.Empty = len(r.Users) == 0
		p.FooterVisible = len(r.Users) > 0
	}
	if p.FooterVisible {
		p.RangeStart, p.RangeEnd = ResultRange(v.Page, users.PageSize, r.Total, len(r.Users))
	}
	return p
}

func SortIndicator(v users.ViewState, key users.SortKey) Indicator {
	if v.SortKey != key {
		return IndicatorNeutral
	}
	if v.SortOrder == users.OrderDesc {
		return IndicatorDesc
	}
	return IndicatorAsc
}

// ResultRange returns the 1-based inclusive range shown in the footer:
// [(page-1)*pageSize+1, min(page*pageSize, total)]. The end never passes the
// last row actually on the page.
func ResultRange(page, pageSize, total, rows int) (start, end int) {
	start = (page-1)*pageSize + 1
	end = min(page*pageSize, total)
	if rows > 0 {
		end = min(end, start+rows-1)
	}
	return start, end
}
