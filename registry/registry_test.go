package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/PaulFidika/plankit/entitlements"
)

func TestResolveMemoizesFirstSuccess(t *testing.T) {
	loads := 0
	r := New(Widget{
		Manifest: entitlements.WidgetManifest{Name: "editor"},
		Load: func(ctx context.Context) (Implementation, error) {
			loads++
			return "impl", nil
		},
	})

	for i := 0; i < 3; i++ {
		impl, err := r.Resolve(context.Background(), "editor")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if impl != "impl" {
			t.Fatalf("impl = %v", impl)
		}
	}
	if loads != 1 {
		t.Errorf("loads = %d, want 1", loads)
	}
}

func TestResolveRetriesAfterFailure(t *testing.T) {
	loads := 0
	r := New(Widget{
		Manifest: entitlements.WidgetManifest{Name: "editor"},
		Load: func(ctx context.Context) (Implementation, error) {
			loads++
			if loads == 1 {
				return nil, errors.New("transient")
			}
			return "impl", nil
		},
	})

	if _, err := r.Resolve(context.Background(), "editor"); err == nil {
		t.Fatal("first resolve should fail")
	}
	impl, err := r.Resolve(context.Background(), "editor")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if impl != "impl" {
		t.Errorf("impl = %v", impl)
	}
}

func TestUnknownName(t *testing.T) {
	r := New()
	if _, ok := r.Manifest("nope"); ok {
		t.Error("unexpected manifest")
	}
	if _, err := r.Resolve(context.Background(), "nope"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("err = %v, want ErrNotRegistered", err)
	}
}

func TestManifestLookup(t *testing.T) {
	r := New(Widget{
		Manifest: entitlements.WidgetManifest{Name: "editor", Dependencies: []string{"video_generation", "premium_models"}},
	})
	m, ok := r.Manifest("editor")
	if !ok {
		t.Fatal("missing manifest")
	}
	if len(m.Dependencies) != 2 {
		t.Errorf("dependencies = %v", m.Dependencies)
	}
}
