package mongostore

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"linecheck/internal/domain"
)

// Op names match the driver/shell operation that failed.
const (
	OpConnect        = "connect"
	OpPing           = "ping"
	OpCountDocuments = "countDocuments"
	OpFindOne        = "findOne"
	OpFind           = "find"
	OpAggregate      = "aggregate"
	OpCollStats      = "$collStats"
	OpListIndexes    = "listIndexes"
	OpDisconnect     = "disconnect"
)

// Error wraps a driver error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "mongo " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = fmt.Errorf("%w: %w", domain.ErrNoDocument, err)
	}
	return &Error{Op: op, Err: err}
}
