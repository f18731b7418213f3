package users

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
)

// ViewState is everything the visitor controls on the users page.
type ViewState struct {
	Search    string    `json:"search"`
	AgeFilter AgeBucket `json:"age_filter"`
	SortKey   SortKey   `json:"sort_key"`
	SortOrder SortOrder `json:"sort_order"`
	Page      int       `json:"page"`
}

func DefaultViewState() ViewState {
	return ViewState{
		Search:    "",
		AgeFilter: AgeAll,
		SortKey:   SortByID,
		SortOrder: OrderAsc,
		Page:      1,
	}
}

// HasActiveFilters reports whether any filter or sort differs from the defaults.
// Page is not a filter.
func (v ViewState) HasActiveFilters() bool {
	return v.Search != "" || v.AgeFilter != AgeAll || v.SortKey != SortByID || v.SortOrder != OrderAsc
}

// Normalize replaces unknown or zero values with defaults. Used when a view
// comes back from a session store.
func (v ViewState) Normalize() ViewState {
	def := DefaultViewState()
	if !v.AgeFilter.Valid() {
		v.AgeFilter = def.AgeFilter
	}
	if !v.SortKey.Valid() {
		v.SortKey = def.SortKey
	}
	if !v.SortOrder.Valid() {
		v.SortOrder = def.SortOrder
	}
	if v.Page < 1 {
		v.Page = def.Page
	}
	return v
}

// Query is the descriptor sent to the users API.
type Query struct {
	Page   int
	Limit  int
	Search string
	SortBy SortKey
	Order  SortOrder
	// Age is empty when the filter is "all".
	Age AgeBucket
}

// BuildQuery derives the API query from the view state. It has no side effects.
func BuildQuery(v ViewState) Query {
	q := Query{
		Page:   v.Page,
		Limit:  PageSize,
		Search: v.Search,
		SortBy: v.SortKey,
		Order:  v.SortOrder,
	}
	if v.AgeFilter != AgeAll && v.AgeFilter != "" {
		q.Age = v.AgeFilter
	}
	return q
}

func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("search", q.Search)
	v.Set("sort_by", string(q.SortBy))
	v.Set("order", string(q.Order))
	if q.Age != "" {
		v.Set("age", string(q.Age))
	}
	return v
}

// Encode returns the query string; keys are sorted so equal queries encode equally.
func (q Query) Encode() string {
	return q.Values().Encode()
}

func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.TrimSpace(s))
	if !k.Valid() {
		return "", apperrors.New(apperrors.KindInvalidInput, fmt.Sprintf("invalid sort key: %q", s))
	}
	return k, nil
}

func ParseSortOrder(s string) (SortOrder, error) {
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", apperrors.New(apperrors.KindInvalidInput, fmt.Sprintf("invalid sort order: %q", s))
	}
	return o, nil
}

func ParseAgeBucket(s string) (AgeBucket, error) {
	b := AgeBucket(strings.TrimSpace(s))
	if b == "" {
		return AgeAll, nil
	}
	if !b.Valid() {
		return "", apperrors.New(apperrors.KindInvalidInput, fmt.Sprintf("invalid age filter: %q", s))
	}
	return b, nil
}
