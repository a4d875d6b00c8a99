package templatescmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pagebuilder/internal/commands"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/templates"
)

type stubService struct {
	created     []pagedef.TemplatePayload
	saved       []pagedef.TemplatePayload
	invalidated []string
	err         error
}

func (s *stubService) Create(_ context.Context, payload pagedef.TemplatePayload) (*templates.WriteResult, error) {
	s.created = append(s.created, payload)
	if s.err != nil {
		return nil, s.err
	}
	return &templates.WriteResult{Path: payload.TemplatePath, Location: "blob:" + payload.TemplatePath + ".json", Created: true}, nil
}

func (s *stubService) Save(_ context.Context, payload pagedef.TemplatePayload) (*templates.WriteResult, error) {
	s.saved = append(s.saved, payload)
	if s.err != nil {
		return nil, s.err
	}
	return &templates.WriteResult{Path: payload.TemplatePath, Location: "filesystem:" + payload.TemplatePath + "/page.go"}, nil
}

func (s *stubService) LoadRaw(context.Context, string) (*templates.RawTemplate, error) {
	return nil, errors.New("not implemented")
}

func (s *stubService) RenderData(context.Context, string) (*templates.RenderData, error) {
	return nil, errors.New("not implemented")
}

func (s *stubService) InvalidateCache(_ context.Context, path string) error {
	s.invalidated = append(s.invalidated, path)
	return s.err
}

func TestCreateTemplateHandlerPopulatesResult(t *testing.T) {
	service := &stubService{}
	handler := NewCreateTemplateHandler(service, commands.CommandLogger(nil, "templates"))

	result := &templates.WriteResult{}
	err := handler.Execute(context.Background(), CreateTemplateCommand{
		Payload: pagedef.TemplatePayload{TemplatePath: "lv/new", Content: pagedef.ContentOverrides{}},
		Result:  result,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(service.created))
	}
	if result.Location != "blob:lv/new.json" {
		t.Fatalf("expected result location, got %q", result.Location)
	}
}

func TestCreateTemplateHandlerValidationError(t *testing.T) {
	service := &stubService{}
	handler := NewCreateTemplateHandler(service, nil)

	for _, path := range []string{"", "../escape", "lv/~root"} {
		err := handler.Execute(context.Background(), CreateTemplateCommand{Payload: pagedef.TemplatePayload{TemplatePath: path}})
		if err == nil {
			t.Fatalf("%q: expected validation error", path)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("%q: expected validation category, got %v", path, err)
		}
		var richErr *goerrors.Error
		if !errors.As(err, &richErr) || richErr.TextCode != ValidationTextCode {
			t.Fatalf("%q: expected text code %s, got %v", path, ValidationTextCode, err)
		}
	}
	if len(service.created) != 0 {
		t.Fatalf("expected service not to be called, got %d calls", len(service.created))
	}
}

func TestCreateTemplateHandlerDuplicateIsBadInput(t *testing.T) {
	service := &stubService{err: templates.ErrTemplateExists}
	handler := NewCreateTemplateHandler(service, nil)

	err := handler.Execute(context.Background(), CreateTemplateCommand{Payload: pagedef.TemplatePayload{TemplatePath: "lv/dup"}})
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
	if !errors.Is(err, templates.ErrTemplateExists) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestSaveTemplateHandlerRequiresContent(t *testing.T) {
	service := &stubService{}
	handler := NewSaveTemplateHandler(service, nil)

	err := handler.Execute(context.Background(), SaveTemplateCommand{Payload: pagedef.TemplatePayload{TemplatePath: "lv/a"}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(service.saved) != 0 {
		t.Fatalf("expected no save call")
	}
}

func TestSaveTemplateHandlerRejectsIncompleteComponents(t *testing.T) {
	handler := NewSaveTemplateHandler(&stubService{}, nil)
	err := handler.Execute(context.Background(), SaveTemplateCommand{Payload: pagedef.TemplatePayload{
		TemplatePath:    "lv/a",
		Content:         pagedef.ContentOverrides{},
		AddedComponents: []pagedef.ComponentInstance{{ID: "intro-1"}},
	}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestSaveTemplateHandlerStorageFailureIsInternal(t *testing.T) {
	service := &stubService{err: errors.New("disk full")}
	handler := NewSaveTemplateHandler(service, nil)

	err := handler.Execute(context.Background(), SaveTemplateCommand{Payload: pagedef.TemplatePayload{
		TemplatePath: "lv/a",
		Content:      pagedef.ContentOverrides{},
	}})
	if !goerrors.IsCategory(err, goerrors.CategoryInternal) {
		t.Fatalf("expected internal category, got %v", err)
	}
}

func TestInvalidateTemplateHandler(t *testing.T) {
	service := &stubService{}
	handler := NewInvalidateTemplateHandler(service, nil)
	if err := handler.Execute(context.Background(), InvalidateTemplateCommand{TemplatePath: "lv/a"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(service.invalidated) != 1 || service.invalidated[0] != "lv/a" {
		t.Fatalf("expected invalidation of lv/a, got %v", service.invalidated)
	}
}
