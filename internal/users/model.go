package users

// PageSize is the number of rows requested per page.
const PageSize = 10

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      int    `json:"age"`
}

// Page is the body returned by GET /api/users.
type Page struct {
	Data       []User `json:"data"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type SortKey string

const (
	SortByID       SortKey = "id"
	SortByUsername SortKey = "username"
	SortByName     SortKey = "name"
	SortByEmail    SortKey = "email"
	SortByAge      SortKey = "age"
)

// SortKeys lists the sortable columns in display order.
var SortKeys = []SortKey{SortByID, SortByUsername, SortByName, SortByEmail, SortByAge}

func (k SortKey) Valid() bool {
	switch k {
	case SortByID, SortByUsername, SortByName, SortByEmail, SortByAge:
		return true
	default:
		return false
	}
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == OrderAsc || o == OrderDesc
}

// Toggle flips asc <-> desc.
func (o SortOrder) Toggle() SortOrder {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

type AgeBucket string

const (
	AgeAll     AgeBucket = "all"
	Age18To25  AgeBucket = "18-25"
	Age26To35  AgeBucket = "26-35"
	Age36To45  AgeBucket = "36-45"
	Age46AndUp AgeBucket = "46+"
)

// AgeBuckets lists the filter options in display order.
var AgeBuckets = []AgeBucket{AgeAll, Age18To25, Age26To35, Age36To45, Age46AndUp}

func (b AgeBucket) Valid() bool {
	switch b {
	case AgeAll, Age18To25, Age26To35, Age36To45, Age46AndUp:
		return true
	default:
		return false
	}
}
