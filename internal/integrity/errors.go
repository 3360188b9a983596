package integrity

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// DetectionError wraps a detector query failure with the category it came
// from, so the aggregator can degrade that single category instead of
// failing the whole pass.
type DetectionError struct {
	Category string
	Err      error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection failed for %s: %v", e.Category, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

func newDetectionError(category string, err error) *DetectionError {
	return &DetectionError{Category: category, Err: err}
}

// pq error code for a relation that does not exist.
const pqUndefinedTable = "42P01"

// isUndefinedTable recognizes the schema-absent condition: an optional
// supporting table (the trigger execution log) has not been provisioned.
// That is an expected operating mode, not a fault.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUndefinedTable
	}
	return false
}
