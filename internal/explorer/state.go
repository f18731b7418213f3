package explorer

import "github.com/PabloPavan/data_explorer/internal/users"

type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// Result is the state derived from the last applied fetch cycle.
type Result struct {
	Users      []users.User `json:"users"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
	Loading    bool         `json:"loading"`
	Error      string       `json:"error,omitempty"`
}

// Status resolves the three mutually exclusive display states. Loading wins
// over a stale error.
func (r Result) Status() Status {
	switch {
	case r.Loading:
		return StatusLoading
	case r.Error != "":
		return StatusError
	default:
		return StatusReady
	}
}

type Snapshot struct {
	View   users.ViewState `json:"view"`
	Result Result          `json:"result"`
	Seq    uint64          `json:"seq"`
}
