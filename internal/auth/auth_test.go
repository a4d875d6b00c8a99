package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetAllowedWildcards(t *testing.T) {
	set := NewSet("templates:*")
	if !set.Allowed(TemplatesUpdate) || set.Allowed("languages:update") {
		t.Fatalf("unexpected resource wildcard behaviour")
	}
	if !NewSet(Wildcard).Allowed("anything:read") {
		t.Fatalf("expected global wildcard to allow everything")
	}
	if NewSet().Allowed(TemplatesRead) {
		t.Fatalf("expected empty set to deny")
	}
}

func TestRequireDeniesAnonymous(t *testing.T) {
	err := Require(context.Background(), TemplatesCreate)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	ctx := WithPermissions(context.Background(), TemplatesCreate)
	if err := Require(ctx, TemplatesCreate); err != nil {
		t.Fatalf("expected permission granted, got %v", err)
	}
	if (ContextAdmin{}).IsAdmin(ctx) {
		t.Fatalf("expected create-only holder not to be admin")
	}
	if !(ContextAdmin{}).IsAdmin(WithPermissions(context.Background(), Join(ResourceTemplates, ActionUpdate))) {
		t.Fatalf("expected update holder to be admin")
	}
}

func TestTokenMiddleware(t *testing.T) {
	var admin bool
	handler := TokenMiddleware(TokenConfig{Token: "s3cret"})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		admin = ContextAdmin{}.IsAdmin(r.Context())
	}))

	cases := []struct {
		name  string
		setup func(*http.Request)
		want  bool
	}{
		{name: "anonymous", setup: func(*http.Request) {}, want: false},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") }, want: true},
		{name: "wrong bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, want: false},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "s3cret"}) }, want: true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc.setup(req)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if admin != tc.want {
			t.Fatalf("%s: expected admin=%v, got %v", tc.name, tc.want, admin)
		}
	}
}

func TestInsecureMiddlewareGrantsEveryone(t *testing.T) {
	var admin bool
	handler := TokenMiddleware(TokenConfig{Insecure: true})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		admin = ContextAdmin{}.IsAdmin(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !admin {
		t.Fatalf("expected insecure mode to grant admin")
	}
}
