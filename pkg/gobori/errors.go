package gobori

import "errors"

// Programmer-error sentinels. CSP inconsistency during search is never one of
// these: it is represented by a plain bool return.
var (
	ErrUnknownVariable       = errors.New("gobori: unknown variable id")
	ErrFrozenModel           = errors.New("gobori: model is frozen after BuildConstraintWatchList")
	ErrInvalidDomain         = errors.New("gobori: invalid domain bounds")
	ErrInvalidConstraintArity = errors.New("gobori: constraint received wrong number of variables")
	ErrNotBuilt              = errors.New("gobori: BuildConstraintWatchList has not been called")
)
