package wells

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSurvey is returned for a collar without survey stations.
	ErrMissingSurvey = errors.New("wells: missing survey")
	// ErrMissingCollars is returned by Build when no collar table was added.
	ErrMissingCollars = errors.New("wells: no collars")
	// ErrUnknownColumn is matched by every *UnknownColumnError.
	ErrUnknownColumn = errors.New("wells: unknown column")
	// ErrDuplicateColumn means two sources map onto the same column name.
	ErrDuplicateColumn = errors.New("wells: duplicate column")
	// ErrDuplicateWell means a collar table lists a well twice.
	ErrDuplicateWell = errors.New("wells: duplicate well")
	// ErrInvalidSurvey means survey stations cannot be desurveyed.
	ErrInvalidSurvey = errors.New("wells: invalid survey")
)

// UnknownColumnError names a column that a table does not have.
type UnknownColumnError struct {
	Table     string
	Column    string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("wells: %s has no column %q (have %s)", e.Table, e.Column, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrUnknownColumn) work.
func (e *UnknownColumnError) Is(target error) bool { return target == ErrUnknownColumn }
