package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidStay matches every *InvalidStayError through errors.Is.
var ErrInvalidStay = errors.New("pricing: invalid stay")

// StayConstraint names the precondition a stay violated.
type StayConstraint string

const (
	ConstraintDateOrder StayConstraint = "check_in_before_check_out"
	ConstraintNights    StayConstraint = "positive_nights"
	ConstraintMinStay   StayConstraint = "min_stay_nights"
	ConstraintMaxStay   StayConstraint = "max_stay_nights"
	ConstraintHorizon   StayConstraint = "booking_horizon"
)

// InvalidStayError is validation feedback for the guest; it is never retried.
type InvalidStayError struct {
	Constraint StayConstraint
	Nights     int
	Limit      int
	Detail     string
}

func (e *InvalidStayError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("pricing: invalid stay: %s", e.Constraint)
	}
	return fmt.Sprintf("pricing: invalid stay: %s: %s", e.Constraint, e.Detail)
}

func (e *InvalidStayError) Is(target error) bool {
	return target == ErrInvalidStay
}

func invalidStay(c StayConstraint, nights, limit int, format string, args ...any) error {
	return &InvalidStayError{Constraint: c, Nights: nights, Limit: limit, Detail: fmt.Sprintf(format, args...)}
}
