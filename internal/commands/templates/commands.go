package templatescmd

import (
	"context"
	"errors"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/templates"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const (
	createTemplateMessageType     = "pagebuilder.templates.create"
	saveTemplateMessageType       = "pagebuilder.templates.save"
	invalidateTemplateMessageType = "pagebuilder.templates.invalidate"

	// ValidationTextCode tags invalid template command payloads.
	ValidationTextCode = "TEMPLATE_VALIDATION_FAILED"

	textCodeExists      = "TEMPLATE_EXISTS"
	textCodeNotFound    = "TEMPLATE_NOT_FOUND"
	textCodeInvalidPath = "TEMPLATE_PATH_INVALID"
	textCodeUnavailable = "TEMPLATE_UNAVAILABLE"
	textCodeStorage     = "TEMPLATE_STORAGE_FAILED"
)

// CreateTemplateCommand creates a new page definition. Result is populated on success.
type CreateTemplateCommand struct {
	Payload pagedef.TemplatePayload `json:"payload"`
	Result  *templates.WriteResult  `json:"-"`
}

// Type implements command.Message.
func (CreateTemplateCommand) Type() string { return createTemplateMessageType }

// Validate ensures a usable template path was supplied.
func (m CreateTemplateCommand) Validate() error {
	errs := validation.Errors{}
	validatePath(errs, "pagebuilder.templates.create", m.Payload.TemplatePath)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SaveTemplateCommand persists edited content for a page, creating it when missing.
type SaveTemplateCommand struct {
	Payload pagedef.TemplatePayload `json:"payload"`
	Result  *templates.WriteResult  `json:"-"`
}

// Type implements command.Message.
func (SaveTemplateCommand) Type() string { return saveTemplateMessageType }

// Validate ensures the path and content map are present.
func (m SaveTemplateCommand) Validate() error {
	errs := validation.Errors{}
	validatePath(errs, "pagebuilder.templates.save", m.Payload.TemplatePath)
	if m.Payload.Content == nil {
		errs["content"] = validation.NewError("pagebuilder.templates.save.content_required", "content is required")
	}
	for idx, inst := range m.Payload.AddedComponents {
		if strings.TrimSpace(inst.ID) == "" || strings.TrimSpace(inst.RegistryKey) == "" {
			errs["addedComponents"] = validation.NewError(
				"pagebuilder.templates.save.component_invalid",
				"every component requires id and componentKey (index "+strconv.Itoa(idx)+")",
			)
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InvalidateTemplateCommand drops cached renders of a page.
type InvalidateTemplateCommand struct {
	TemplatePath string `json:"templatePath"`
}

// Type implements command.Message.
func (InvalidateTemplateCommand) Type() string { return invalidateTemplateMessageType }

func (m InvalidateTemplateCommand) Validate() error {
	errs := validation.Errors{}
	validatePath(errs, "pagebuilder.templates.invalidate", m.TemplatePath)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePath(errs validation.Errors, prefix, path string) {
	if strings.TrimSpace(path) == "" {
		errs["templatePath"] = validation.NewError(prefix+".path_required", "templatePath is required")
		return
	}
	if _, err := pagedef.ValidatePath(path); err != nil {
		errs["templatePath"] = validation.NewError(prefix+".path_invalid", err.Error())
	}
}

// CreateTemplateHandler runs CreateTemplateCommand through the template service.
type CreateTemplateHandler struct {
	inner *commands.Handler[CreateTemplateCommand]
}

// NewCreateTemplateHandler wires the create command.
func NewCreateTemplateHandler(service templates.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CreateTemplateCommand]) *CreateTemplateHandler {
	baseLogger := loggerOrNoOp(logger)
	exec := func(ctx context.Context, msg CreateTemplateCommand) error {
		result, err := service.Create(ctx, msg.Payload)
		if err != nil {
			return Classify(err)
		}
		if msg.Result != nil {
			*msg.Result = *result
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[CreateTemplateCommand]{
		commands.WithLogger[CreateTemplateCommand](baseLogger),
		commands.WithOperation[CreateTemplateCommand]("templates.create"),
		commands.WithValidationCode[CreateTemplateCommand](ValidationTextCode),
		commands.WithMessageFields(func(msg CreateTemplateCommand) map[string]any {
			return pathFields(msg.Payload.TemplatePath)
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CreateTemplateCommand](baseLogger)),
	}
	return &CreateTemplateHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[CreateTemplateCommand].
func (h *CreateTemplateHandler) Execute(ctx context.Context, msg CreateTemplateCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SaveTemplateHandler runs SaveTemplateCommand through the template service.
type SaveTemplateHandler struct {
	inner *commands.Handler[SaveTemplateCommand]
}

// NewSaveTemplateHandler wires the save command.
func NewSaveTemplateHandler(service templates.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SaveTemplateCommand]) *SaveTemplateHandler {
	baseLogger := loggerOrNoOp(logger)
	exec := func(ctx context.Context, msg SaveTemplateCommand) error {
		result, err := service.Save(ctx, msg.Payload)
		if err != nil {
			return Classify(err)
		}
		if msg.Result != nil {
			*msg.Result = *result
		}
		return nil
	}
	handlerOpts := []commands.HandlerOption[SaveTemplateCommand]{
		commands.WithLogger[SaveTemplateCommand](baseLogger),
		commands.WithOperation[SaveTemplateCommand]("templates.save"),
		commands.WithValidationCode[SaveTemplateCommand](ValidationTextCode),
		commands.WithMessageFields(func(msg SaveTemplateCommand) map[string]any {
			fields := pathFields(msg.Payload.TemplatePath)
			if msg.Payload.AddedComponents != nil {
				fields["instances"] = len(msg.Payload.AddedComponents)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SaveTemplateCommand](baseLogger)),
	}
	return &SaveTemplateHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

// Execute satisfies command.Commander[SaveTemplateCommand].
func (h *SaveTemplateHandler) Execute(ctx context.Context, msg SaveTemplateCommand) error {
	return h.inner.Execute(ctx, msg)
}

// InvalidateTemplateHandler drops cached renders for a page.
type InvalidateTemplateHandler struct {
	inner *commands.Handler[InvalidateTemplateCommand]
}

func NewInvalidateTemplateHandler(service templates.Service, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateTemplateCommand]) *InvalidateTemplateHandler {
	baseLogger := loggerOrNoOp(logger)
	exec := func(ctx context.Context, msg InvalidateTemplateCommand) error {
		return service.InvalidateCache(ctx, msg.TemplatePath)
	}
	handlerOpts := []commands.HandlerOption[InvalidateTemplateCommand]{
		commands.WithLogger[InvalidateTemplateCommand](baseLogger),
		commands.WithOperation[InvalidateTemplateCommand]("templates.invalidate"),
		commands.WithValidationCode[InvalidateTemplateCommand](ValidationTextCode),
		commands.WithMessageFields(func(msg InvalidateTemplateCommand) map[string]any {
			return pathFields(msg.TemplatePath)
		}),
	}
	return &InvalidateTemplateHandler{inner: commands.NewHandler(exec, append(handlerOpts, opts...)...)}
}

func (h *InvalidateTemplateHandler) Execute(ctx context.Context, msg InvalidateTemplateCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Classify tags template service failures with a go-errors category.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, templates.ErrTemplateExists):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "Template already exists").WithTextCode(textCodeExists)
	case errors.Is(err, templates.ErrTemplatePathRequired),
		errors.Is(err, templates.ErrContentRequired),
		errors.Is(err, pagedef.ErrPathTraversal),
		errors.Is(err, pagedef.ErrPathInvalid):
		return goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).WithTextCode(textCodeInvalidPath)
	case errors.Is(err, templates.ErrTemplateNotFound):
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "Template not found").WithTextCode(textCodeNotFound)
	case errors.Is(err, templates.ErrTemplateUnavailable):
		return goerrors.Wrap(err, goerrors.CategoryInternal, "Template could not be loaded").WithTextCode(textCodeUnavailable)
	default:
		return goerrors.Wrap(err, goerrors.CategoryInternal, "Failed to persist template").WithTextCode(textCodeStorage)
	}
}

func pathFields(path string) map[string]any {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields["template_path"] = pagedef.NormalizePath(trimmed)
	}
	return fields
}

func loggerOrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
