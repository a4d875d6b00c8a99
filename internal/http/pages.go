package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-pagebuilder/internal/cache"
	"github.com/goliatone/go-pagebuilder/internal/languages"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/render"
	"github.com/goliatone/go-pagebuilder/internal/resolver"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// IndexSlug names the template served for a bare language root such as /lv/.
const IndexSlug = "index"

// PageLookup resolves a definition, collapsing every failure to a miss.
type PageLookup interface {
	Lookup(ctx context.Context, path string) (resolver.Result, bool)
}

// LanguageSet answers which language prefixes are served.
type LanguageSet interface {
	Default(ctx context.Context) string
	IsSupported(ctx context.Context, code string) bool
}

// PageHandler serves /{lang}/{slug...} by resolving and rendering the
// matching definition.
type PageHandler struct {
	pages     PageLookup
	renderer  *render.Renderer
	languages LanguageSet
	admin     interfaces.AdminChecker
	cache     interfaces.CacheProvider
	cacheTTL  time.Duration
	logger    interfaces.Logger

	exempt             []string
	stylesheets        []string
	scripts            []string
	saveEndpoint       string
	createEndpoint     string
	componentsEndpoint string
}

// PageOption mutates the PageHandler configuration.
type PageOption func(*PageHandler)

// NewPageHandler constructs the page view handler.
func NewPageHandler(pages PageLookup, renderer *render.Renderer, langs LanguageSet, opts ...PageOption) *PageHandler {
	if renderer == nil {
		renderer = render.New(nil)
	}
	h := &PageHandler{
		pages:              pages,
		renderer:           renderer,
		languages:          langs,
		logger:             logging.NoOp(),
		exempt:             []string{"/admin", "/api"},
		saveEndpoint:       joinPath(defaultAdminBasePath, "save"),
		createEndpoint:     joinPath(defaultAdminBasePath, "create"),
		componentsEndpoint: joinPath(defaultAdminBasePath, "components"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithAdminChecker gates the edit and create affordances.
func WithAdminChecker(checker interfaces.AdminChecker) PageOption {
	return func(h *PageHandler) {
		if h != nil {
			h.admin = checker
		}
	}
}

// WithPageCache caches anonymous renders for ttl.
func WithPageCache(provider interfaces.CacheProvider, ttl time.Duration) PageOption {
	return func(h *PageHandler) {
		if h != nil {
			h.cache = provider
			h.cacheTTL = ttl
		}
	}
}

// WithPageLogger sets the handler logger.
func WithPageLogger(logger interfaces.Logger) PageOption {
	return func(h *PageHandler) {
		if h != nil && logger != nil {
			h.logger = logger
		}
	}
}

// WithAssets adds stylesheets and scripts to every rendered document.
func WithAssets(stylesheets, scripts []string) PageOption {
	return func(h *PageHandler) {
		if h != nil {
			h.stylesheets = append([]string(nil), stylesheets...)
			h.scripts = append([]string(nil), scripts...)
		}
	}
}

// WithEditorEndpoints points the embedded editor at the template API.
func WithEditorEndpoints(adminBasePath string) PageOption {
	return func(h *PageHandler) {
		if h == nil || strings.TrimSpace(adminBasePath) == "" {
			return
		}
		h.saveEndpoint = joinPath(adminBasePath, "save")
		h.createEndpoint = joinPath(adminBasePath, "create")
		h.componentsEndpoint = joinPath(adminBasePath, "components")
	}
}

// WithExemptPrefixes replaces the path prefixes that bypass language routing.
func WithExemptPrefixes(prefixes ...string) PageOption {
	return func(h *PageHandler) {
		if h != nil {
			h.exempt = append([]string(nil), prefixes...)
		}
	}
}

// Register mounts the handler as the catch-all GET route.
func (h *PageHandler) Register(mux *http.ServeMux) {
	if mux == nil || h == nil {
		return
	}
	mux.Handle("GET /", h)
}

// Route is the outcome of language routing for one request path.
type Route struct {
	Lang         string
	Slug         []string
	TemplatePath string
	// Redirect is set when the request must move to another URL.
	Redirect string
}

// ResolveRoute applies the language prefix rules to urlPath.
func ResolveRoute(ctx context.Context, langs LanguageSet, urlPath string) Route {
	defaultLang := langs.Default(ctx)
	segments := splitSegments(urlPath)
	if len(segments) == 0 {
		return Route{Redirect: "/" + defaultLang + "/"}
	}
	first := segments[0]
	if !languages.LooksLikeLanguage(first) {
		return Route{Redirect: "/" + defaultLang + "/" + strings.Join(segments, "/")}
	}
	rest := segments[1:]
	if !langs.IsSupported(ctx, first) {
		return Route{Redirect: "/" + defaultLang + "/" + strings.Join(rest, "/")}
	}
	slug := rest
	if len(slug) == 0 {
		slug = []string{IndexSlug}
	}
	return Route{
		Lang:         first,
		Slug:         rest,
		TemplatePath: first + "/" + strings.Join(slug, "/"),
	}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isExempt(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()
	route := ResolveRoute(ctx, h.languages, r.URL.Path)
	if route.Redirect != "" {
		target := route.Redirect
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	if _, err := pagedef.ValidatePath(route.TemplatePath); err != nil {
		h.writeNotFound(w, r, route, false)
		return
	}

	admin := h.admin != nil && h.admin.IsAdmin(ctx)
	query := r.URL.Query()
	log := logging.WithTemplateContext(h.logger, route.TemplatePath, "", "view")

	result, found := h.pages.Lookup(ctx, route.TemplatePath)
	if !found {
		if admin && parseBoolQuery(query.Get("create"), false) {
			h.writePage(w, pagedef.CreateEmpty(route.TemplatePath), route, render.ModeCreate, true)
			return
		}
		log.Debug("pages.view.not_found")
		h.writeNotFound(w, r, route, admin)
		return
	}

	mode := render.ModeView
	if admin && parseBoolQuery(query.Get("edit"), false) {
		mode = render.ModeEdit
	}
	if mode == render.ModeView && !admin && h.cache != nil {
		key := cache.PageKey(route.TemplatePath, "view")
		if cached, err := h.cache.Get(ctx, key); err == nil {
			if body, ok := cached.([]byte); ok {
				writeHTML(w, http.StatusOK, body)
				return
			}
		}
		body, err := h.renderPage(result.Definition, route, mode, false)
		if err != nil {
			log.Error("pages.view.render_failed", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		if err := h.cache.Set(ctx, key, body, h.cacheTTL); err != nil {
			log.Warn("pages.view.cache_failed", "error", err)
		}
		writeHTML(w, http.StatusOK, body)
		return
	}
	h.writePage(w, result.Definition, route, mode, admin)
}

func (h *PageHandler) writePage(w http.ResponseWriter, def pagedef.PageDefinition, route Route, mode render.Mode, admin bool) {
	body, err := h.renderPage(def, route, mode, admin)
	if err != nil {
		logging.WithTemplateContext(h.logger, route.TemplatePath, "", "view").
			Error("pages.view.render_failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, body)
}

func (h *PageHandler) renderPage(def pagedef.PageDefinition, route Route, mode render.Mode, admin bool) ([]byte, error) {
	saveEndpoint := h.saveEndpoint
	if mode == render.ModeCreate {
		saveEndpoint = h.createEndpoint
	}
	var buf bytes.Buffer
	err := h.renderer.Page(&buf, def, render.Options{
		Mode:               mode,
		Lang:               route.Lang,
		Admin:              admin,
		Stylesheets:        h.stylesheets,
		Scripts:            h.scripts,
		SaveEndpoint:       saveEndpoint,
		ComponentsEndpoint: h.componentsEndpoint,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *PageHandler) writeNotFound(w http.ResponseWriter, r *http.Request, route Route, admin bool) {
	data := render.NotFoundData{
		Path:        route.TemplatePath,
		Lang:        route.Lang,
		Stylesheets: h.stylesheets,
	}
	if admin {
		data.CreateURL = render.CreateURL(r.URL.Path)
	}
	var buf bytes.Buffer
	if err := h.renderer.NotFound(&buf, data); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (h *PageHandler) isExempt(path string) bool {
	for _, prefix := range h.exempt {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
