package deals

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRateOutOfRange    = errors.New("rate outside allowed band")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrSMESuspended      = errors.New("sme is suspended")
)
