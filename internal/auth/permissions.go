package auth

import (
	"context"
	"errors"
	"strings"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

const ResourceTemplates = "templates"

const (
	TemplatesRead   = "templates:read"
	TemplatesCreate = "templates:create"
	TemplatesUpdate = "templates:update"

	// Wildcard grants every permission.
	Wildcard = "*"
)

var ErrPermissionDenied = errors.New("auth: permission denied")

type Error struct {
	Permission string
}

func (e Error) Error() string {
	if strings.TrimSpace(e.Permission) == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error {
	return ErrPermissionDenied
}

// Join builds a permission token from resource and action.
func Join(resource string, action Action) string {
	res := normalizeToken(resource)
	act := normalizeToken(string(action))
	if res == "" || act == "" {
		return ""
	}
	return res + ":" + act
}

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool {
	return fn(permission)
}

type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		normalized := normalizePermission(perm)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	if len(s) == 0 {
		return false
	}
	normalized := normalizePermission(permission)
	if normalized == "" {
		return false
	}
	if _, ok := s[normalized]; ok {
		return true
	}
	resource, _ := splitPermission(normalized)
	if resource != "" {
		if _, ok := s[resource+":*"]; ok {
			return true
		}
	}
	_, ok := s[Wildcard]
	return ok
}

type contextKey string

const checkerKey contextKey = "pagebuilder.auth.checker"

// WithChecker stores a permission checker on the context.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey, checker)
}

// WithPermissions stores a static permission set on the context.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if ctx == nil || len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

// CheckerFromContext returns the permission checker stored on ctx, if any.
func CheckerFromContext(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	switch typed := ctx.Value(checkerKey).(type) {
	case Checker:
		return typed
	case []string:
		return NewSet(typed...)
	default:
		return nil
	}
}

// Allowed reports whether ctx carries the permission. Requests without a
// checker are anonymous and hold no permissions.
func Allowed(ctx context.Context, permission string) bool {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return true
	}
	checker := CheckerFromContext(ctx)
	if checker == nil {
		return false
	}
	return checker.Allowed(normalized)
}

// Require returns an Error when ctx lacks the permission.
func Require(ctx context.Context, permission string) error {
	if Allowed(ctx, permission) {
		return nil
	}
	return Error{Permission: normalizePermission(permission)}
}

// ContextAdmin treats holders of templates:update as administrators.
type ContextAdmin struct{}

func (ContextAdmin) IsAdmin(ctx context.Context) bool {
	return Allowed(ctx, TemplatesUpdate)
}

func splitPermission(permission string) (string, Action) {
	normalized := normalizePermission(permission)
	if normalized == "" {
		return "", ""
	}
	parts := strings.SplitN(normalized, ":", 2)
	resource := normalizeToken(parts[0])
	if len(parts) == 1 {
		return resource, ""
	}
	return resource, Action(normalizeToken(parts[1]))
}

func normalizePermission(permission string) string {
	return strings.ToLower(strings.TrimSpace(permission))
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
