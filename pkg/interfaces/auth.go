package interfaces

import "context"

// AdminChecker reports whether the request context belongs to an authenticated
// administrator. Session handling and role resolution live in the host application.
type AdminChecker interface {
	IsAdmin(ctx context.Context) bool
}

// AdminCheckerFunc adapts a function into an AdminChecker.
type AdminCheckerFunc func(ctx context.Context) bool

func (fn AdminCheckerFunc) IsAdmin(ctx context.Context) bool {
	if fn == nil {
		return false
	}
	return fn(ctx)
}
