// Package views composes cache reads and policy checks into per-screen
// rendering decisions. Every controller resolves its gates in the same fixed
// order: authentication presence, then role resolution, then data loading,
// then content. A lower-priority state is never produced while a higher one
// is unresolved, so the UI cannot flash admin content at a non-admin or an
// empty list at a user whose data is still loading.
package views

type State string

const (
	StateLoading      State = "loading"
	StateAccessDenied State = "access_denied"
	StateEmpty        State = "empty"
	StateError        State = "error"
	StateContent      State = "content"
)

// Outcome is the terminal rendering decision of a screen.
type Outcome struct {
	State State `json:"state"`
	Err   error `json:"-"`
	Data  any   `json:"data,omitempty"`
}

func Loading() Outcome {
	return Outcome{State: StateLoading}
}

func AccessDenied() Outcome {
	return Outcome{State: StateAccessDenied}
}

func Empty() Outcome {
	return Outcome{State: StateEmpty}
}

func Failed(err error) Outcome {
	return Outcome{State: StateError, Err: err}
}

func Content(data any) Outcome {
	return Outcome{State: StateContent, Data: data}
}
