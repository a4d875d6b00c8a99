package pagebuilder_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-pagebuilder"
	"github.com/goliatone/go-pagebuilder/internal/di"
	"github.com/goliatone/go-pagebuilder/internal/session"
)

func newModule(t *testing.T) *pagebuilder.Module {
	t.Helper()
	cfg := pagebuilder.DefaultConfig()
	cfg.Mode = pagebuilder.ModeLocal
	cfg.Logging.Level = "error"

	module, err := pagebuilder.New(cfg, di.WithLocalFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func TestEditMissingPageStartsInCreateMode(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	sess, err := module.Edit(ctx, "lv/test/new-page")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if !sess.Creating() || sess.State() != session.StateEditing {
		t.Fatalf("expected create mode, got %s creating=%v", sess.State(), sess.Creating())
	}
	if _, err := sess.AddComponent("intro"); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	def, source, err := module.Resolve(ctx, "lv/test/new-page")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if source != "filesystem" || len(def.Instances) != 1 || def.Instances[0].RegistryKey != "intro" {
		t.Fatalf("unexpected stored definition from %s: %+v", source, def)
	}
}

func TestEditSaveReloadAndHide(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	sess, err := module.Edit(ctx, "lv/par-mums")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	inst, err := sess.AddComponent("intro")
	if err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("create save: %v", err)
	}

	sess, err = module.Edit(ctx, "lv/par-mums")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if sess.Creating() || sess.State() != session.StateViewing {
		t.Fatalf("expected existing page to open in viewing, got %s", sess.State())
	}
	sess.StartEditing()
	if err := sess.UpdateContent(inst.ID, "heading-line1", "New heading"); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if err := sess.ToggleVisibility(inst.ID); err != nil {
		t.Fatalf("ToggleVisibility: %v", err)
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	def, _, err := module.Resolve(ctx, "lv/par-mums")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := pagebuilder.ContentOverrides{inst.ID: {"heading-line1": "New heading"}}
	if diff := cmp.Diff(want, def.ContentOverrides); diff != "" {
		t.Fatalf("content overrides mismatch (-want +got):\n%s", diff)
	}
	if len(def.Instances) != 1 || !def.Instances[0].IsHidden {
		t.Fatalf("expected hidden instance after reload, got %+v", def.Instances)
	}

	sess, _ = module.Edit(ctx, "lv/par-mums")
	sess.StartEditing()
	if err := sess.ToggleVisibility(inst.ID); err != nil {
		t.Fatalf("ToggleVisibility: %v", err)
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, _, err := module.Resolve(ctx, "lv/par-mums")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if again.Instances[0].IsHidden {
		t.Fatalf("expected instance to be visible again")
	}
}

func TestSavingUnchangedStateIsIdempotent(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	sess, err := module.Edit(ctx, "en/pricing")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if _, err := sess.AddComponent("header"); err != nil {
		t.Fatalf("AddComponent: %v", err)
	}
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first, _, err := module.Resolve(ctx, "en/pricing")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	sess, _ = module.Edit(ctx, "en/pricing")
	sess.StartEditing()
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, _, err := module.Resolve(ctx, "en/pricing")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("second save changed the stored definition (-first +second):\n%s", diff)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	module := newModule(t)
	for _, path := range []string{"../secret", "~/secret"} {
		if _, _, err := module.Resolve(context.Background(), path); !errors.Is(err, pagebuilder.ErrNotFound) {
			t.Fatalf("%s: expected not found, got %v", path, err)
		}
	}
	if _, err := module.Edit(context.Background(), "../secret"); err == nil {
		t.Fatalf("expected traversal to be rejected when editing")
	}
}

func TestLoadConfigAppliesEnvironment(t *testing.T) {
	t.Setenv("PAGEBUILDER_HTTP_ADDR", ":9090")
	cfg, err := pagebuilder.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("expected env override, got %q", cfg.HTTP.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDefaultConfigRejectsRemoteWithoutURL(t *testing.T) {
	cfg := pagebuilder.DefaultConfig()
	cfg.Mode = pagebuilder.ModeRemote
	if err := cfg.Validate(); !errors.Is(err, pagebuilder.ErrRemoteBaseURLRequired) {
		t.Fatalf("expected ErrRemoteBaseURLRequired, got %v", err)
	}
}
