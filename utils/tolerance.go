package utils

import (
	"errors"
	"fmt"
	"math"
)

// ToleranceError reports a verification quantity that is not within its
// tolerance. Count is the number of offending elements for array checks.
type ToleranceError struct {
	Quantity  string
	Value     float64
	Tolerance float64
	Count     int
	Message   string
}

func (e *ToleranceError) Error() string {
	if len(e.Message) != 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %v is not within the tolerance of %v", e.Quantity, e.Value, e.Tolerance)
}

func IsToleranceError(err error) bool {
	var te *ToleranceError
	return errors.As(err, &te)
}

// CheckDifference fails unless |a-b| < tol, NaN differences always fail.
func CheckDifference(quantity string, a, b, tol float64) (diff float64, err error) {
	diff = math.Abs(a - b)
	if !(diff < tol) {
		err = &ToleranceError{
			Quantity:  quantity,
			Value:     diff,
			Tolerance: tol,
			Message:   fmt.Sprintf("difference of %s %v exceeds the tolerance of %v", quantity, diff, tol),
		}
	}
	return
}
