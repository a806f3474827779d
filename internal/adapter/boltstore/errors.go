package boltstore

const (
	OpOpen   = "open"
	OpView   = "view"
	OpUpdate = "update"
	OpClose  = "close"
)

// Error wraps a bbolt error with the operation name.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "snapshot " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
