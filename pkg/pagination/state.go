package pagination

import (
	"fmt"

	"github.com/Sternrassler/photo-fetcher/pkg/photo"
)

// State is the feed's position in its state machine.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateExhausted
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is an immutable copy of the feed handed to presentation code.
type Snapshot struct {
	Records          []photo.Photo `json:"records"`
	Cursor           int           `json:"cursor"`
	PageSize         int           `json:"page_size"`
	State            State         `json:"state"`
	ShowingFavorites bool          `json:"showing_favorites"`

	// LastError is the failure of the most recent fetch, if any.
	LastError error  `json:"-"`
	Issue     *Issue `json:"issue,omitempty"`
}

// IsFetching reports whether a fetch is in flight.
func (s Snapshot) IsFetching() bool { return s.State == StateFetching }

// IsExhausted reports whether no further pages are expected.
func (s Snapshot) IsExhausted() bool { return s.State == StateExhausted }
