package extract

import (
	"context"
	"net/http"
	"testing"

	"venuefeed/model"
)

type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(_ context.Context, _ *http.Client, _ model.Source) ([]model.Event, error) {
	return nil, nil
}

func TestRegistryResolveByShape(t *testing.T) {
	r := NewRegistry()
	generic := &stubStrategy{name: "generic"}
	r.RegisterShape("html", generic)

	got, err := r.Resolve(model.Source{Key: "any", Shape: "html"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != Strategy(generic) {
		t.Error("Resolve() did not return the registered shape strategy")
	}
}

func TestRegistryOverrideWinsOverShape(t *testing.T) {
	r := NewRegistry()
	generic := &stubStrategy{name: "generic"}
	bespoke := &stubStrategy{name: "bespoke"}
	r.RegisterShape("html", generic)
	r.RegisterOverride("special-venue", bespoke)

	got, err := r.Resolve(model.Source{Key: "special-venue", Shape: "html"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != Strategy(bespoke) {
		t.Error("Resolve() should prefer the per-source override")
	}

	other, err := r.Resolve(model.Source{Key: "other-venue", Shape: "html"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if other != Strategy(generic) {
		t.Error("override leaked onto a different source key")
	}
}

func TestRegistryResolveMiss(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve(model.Source{Key: "nobody", Shape: "unknown"})
	if err == nil {
		t.Fatal("Resolve() error = nil, want configuration error")
	}
	kind, ok := model.KindOf(err)
	if !ok || kind != model.KindUnresolvedStrategy {
		t.Errorf("error kind = %v, %v; want unresolved_strategy", kind, ok)
	}
}

func TestDefaultRegistryShapes(t *testing.T) {
	r := DefaultRegistry()

	for _, shape := range []string{"html", "wordpress", "ajax", "json-ld"} {
		if _, err := r.Resolve(model.Source{Key: "x", Shape: shape}); err != nil {
			t.Errorf("shape %q not registered: %v", shape, err)
		}
	}
}
