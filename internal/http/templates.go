package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/auth"
	templatescmd "github.com/goliatone/go-pagebuilder/internal/commands/templates"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/registry"
	"github.com/goliatone/go-pagebuilder/internal/templates"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	defaultAdminBasePath = "/api/admin/templates"
	defaultAPIBasePath   = "/api/templates"
)

// TemplateAPI registers the create, save, load, render and component
// catalog endpoints.
type TemplateAPI struct {
	adminBasePath string
	apiBasePath   string
	service       templates.Service
	registry      *registry.Registry
	logger        interfaces.Logger

	create *templatescmd.CreateTemplateHandler
	save   *templatescmd.SaveTemplateHandler
}

// TemplateOption mutates the TemplateAPI configuration.
type TemplateOption func(*TemplateAPI)

// NewTemplateAPI constructs a TemplateAPI instance.
func NewTemplateAPI(opts ...TemplateOption) *TemplateAPI {
	api := &TemplateAPI{
		adminBasePath: defaultAdminBasePath,
		apiBasePath:   defaultAPIBasePath,
		logger:        logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.registry == nil {
		api.registry = registry.Builtin()
	}
	if api.service != nil {
		api.create = templatescmd.NewCreateTemplateHandler(api.service, api.logger)
		api.save = templatescmd.NewSaveTemplateHandler(api.service, api.logger)
	}
	return api
}

// WithAdminBasePath overrides the admin prefix (defaults to "/api/admin/templates").
func WithAdminBasePath(path string) TemplateOption {
	return func(api *TemplateAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.adminBasePath = trimmed
		}
	}
}

// WithAPIBasePath overrides the public prefix (defaults to "/api/templates").
func WithAPIBasePath(path string) TemplateOption {
	return func(api *TemplateAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.apiBasePath = trimmed
		}
	}
}

// WithTemplateService wires the template service.
func WithTemplateService(service templates.Service) TemplateOption {
	return func(api *TemplateAPI) {
		if api != nil {
			api.service = service
		}
	}
}

// WithRegistry wires the component catalog listed by the components endpoint.
func WithRegistry(reg *registry.Registry) TemplateOption {
	return func(api *TemplateAPI) {
		if api != nil && reg != nil {
			api.registry = reg
		}
	}
}

// WithLogger sets the logger used by the command handlers.
func WithLogger(logger interfaces.Logger) TemplateOption {
	return func(api *TemplateAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// AdminBasePath reports the admin prefix.
func (api *TemplateAPI) AdminBasePath() string {
	return joinPath(api.adminBasePath, "")
}

// Register attaches the template endpoints to the provided mux.
func (api *TemplateAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: template api is nil")
	}
	if api.service == nil {
		return fmt.Errorf("http: template service is required")
	}

	admin := joinPath(api.adminBasePath, "")
	public := joinPath(api.apiBasePath, "")

	mux.HandleFunc("POST "+joinPath(admin, "create"), api.handleCreate)
	mux.HandleFunc("POST "+joinPath(admin, "save"), api.handleSave)
	mux.HandleFunc("GET "+joinPath(admin, "load"), api.handleLoad)
	mux.HandleFunc("GET "+joinPath(admin, "components"), api.handleComponents)
	mux.HandleFunc("GET "+joinPath(public, "render"), api.handleRender)
	return nil
}

type templateRequest struct {
	TemplatePath    string                      `json:"templatePath"`
	Content         pagedef.ContentOverrides    `json:"content"`
	AddedComponents []pagedef.ComponentInstance `json:"addedComponents"`
	ElementProps    pagedef.ElementProps        `json:"elementProps,omitempty"`
}

func (req templateRequest) payload() pagedef.TemplatePayload {
	return pagedef.TemplatePayload{
		TemplatePath:    req.TemplatePath,
		Content:         req.Content,
		AddedComponents: req.AddedComponents,
		ElementProps:    req.ElementProps,
	}
}

type writeResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TemplatePath string `json:"templatePath"`
	Location     string `json:"location"`
	Backend      string `json:"backend"`
	Created      bool   `json:"created"`
}

func (api *TemplateAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, auth.TemplatesCreate) {
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.TemplatePath) == "" {
		writeBadRequest(w, "Template path is required")
		return
	}
	payload := req.payload()
	if payload.AddedComponents == nil {
		payload.AddedComponents = []pagedef.ComponentInstance{}
	}

	var result templates.WriteResult
	if err := api.create.Execute(r.Context(), templatescmd.CreateTemplateCommand{Payload: payload, Result: &result}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResponse{
		Success:      true,
		Message:      "Template created successfully",
		TemplatePath: result.Path,
		Location:     result.Location,
		Backend:      result.Backend,
		Created:      true,
	})
}

func (api *TemplateAPI) handleSave(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, auth.TemplatesUpdate) {
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.TemplatePath) == "" || req.Content == nil {
		writeBadRequest(w, "Template path and content are required")
		return
	}

	var result templates.WriteResult
	if err := api.save.Execute(r.Context(), templatescmd.SaveTemplateCommand{Payload: req.payload(), Result: &result}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, writeResponse{
		Success:      true,
		Message:      "Template saved successfully",
		TemplatePath: result.Path,
		Location:     result.Location,
		Backend:      result.Backend,
		Created:      result.Created,
	})
}

func (api *TemplateAPI) handleLoad(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, auth.TemplatesRead) {
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeBadRequest(w, "Template path is required")
		return
	}
	raw, err := api.service.LoadRaw(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":      string(raw.Content),
		"templatePath": raw.Path,
		"source":       raw.Source,
		"contentType":  raw.ContentType,
	})
}

func (api *TemplateAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeBadRequest(w, "Template path is required")
		return
	}
	data, err := api.service.RenderData(r.Context(), path)
	if err != nil {
		if errors.Is(err, templates.ErrTemplateUnavailable) {
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Internal server error",
				Details: err.Error(),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (api *TemplateAPI) handleComponents(w http.ResponseWriter, r *http.Request) {
	if !requirePermission(w, r, auth.TemplatesRead) {
		return
	}
	entries := api.registry.List()
	out := make([]registry.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.DefaultProps == nil {
			entry.DefaultProps = map[string]any{}
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"components": out})
}
