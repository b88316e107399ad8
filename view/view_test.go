package view

import (
	"errors"
	"testing"

	"github.com/flowstruct/multiblock/block"
)

func testStore(t *testing.T, opts block.Options) (*block.Store, block.Handle) {
	t.Helper()
	s := block.NewStore(opts)
	h, err := s.Allocate(block.Spec{
		Key:         block.Key{GlobalID: 0},
		Extent:      block.Extent{Nx: 10, Ny: 6, Nz: 4, Halo: 2},
		Levels:      3,
		Instances:   2,
		StencilHalf: 2,
		NTurb:       1,
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	return s, h
}

func TestActivate_ShapeFidelity(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	wantExt := []block.Extent{
		{Nx: 10, Ny: 6, Nz: 4, Halo: 2},
		{Nx: 5, Ny: 3, Nz: 2, Halo: 2},
		{Nx: 2, Ny: 1, Nz: 1, Halo: 2},
	}
	for level, want := range wantExt {
		for inst := 0; inst < 2; inst++ {
			tok, err := v.Activate(h, level, inst)
			if err != nil {
				t.Fatalf("Activate(%d,%d) failed: %v", level, inst, err)
			}
			if tok.Zero() {
				t.Fatalf("Activate returned the zero token")
			}
			if v.Ext != want {
				t.Errorf("level %d: view extent %v, declared %v", level, v.Ext, want)
			}
			if got, nvar := v.W.Shape(); got != want || nvar != v.NState {
				t.Errorf("level %d: w shaped %v/%d, declared %v/%d", level, got, nvar, want, v.NState)
			}
			if got, _ := v.X.Shape(); got != want.Nodes() {
				t.Errorf("level %d: x shaped %v, declared nodes %v", level, got, want.Nodes())
			}
			if got, _ := v.Vol.Shape(); got != want {
				t.Errorf("level %d: vol shaped %v, declared %v", level, got, want)
			}
			v.Deactivate()
		}
	}
}

func TestActivate_NoLeakAcrossRebind(t *testing.T) {
	s, h1 := testStore(t, block.Options{})
	h2, err := s.Allocate(block.Spec{
		Key:    block.Key{GlobalID: 1},
		Extent: block.Extent{Nx: 8, Ny: 8, Nz: 8, Halo: 2},
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	const sentinel = 123456.789

	v := New(s)
	if _, err := v.Activate(h1, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	v.W.Fill(sentinel)
	v.P.Fill(sentinel)
	v.Deactivate()

	if _, err := v.Activate(h2, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	for _, x := range v.W.Values() {
		if x == sentinel {
			t.Fatal("sentinel written through the first activation is reachable after rebind")
		}
	}
	for _, x := range v.P.Values() {
		if x == sentinel {
			t.Fatal("sentinel leaked into the rebound pressure alias")
		}
	}

	// The aliases point into the second block's storage exclusively.
	blk2, _ := s.Get(h2)
	ls2, _ := blk2.State(0, 0)
	if &v.W.Values()[0] != &ls2.W.Values()[0] {
		t.Error("state alias does not reference the bound block's array")
	}
	v.Deactivate()

	// The first block still holds its sentinel.
	blk1, _ := s.Get(h1)
	ls1, _ := blk1.State(0, 0)
	if ls1.W.Values()[0] != sentinel {
		t.Error("first block's data was disturbed by the rebind")
	}
}

func TestDeactivate_Idempotent(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	v.Deactivate() // never activated: no-op

	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	v.Deactivate()
	v.Deactivate() // second call: no-op, no crash

	if v.Active() {
		t.Error("view reports active after deactivation")
	}
	if s.Bound(h) != 0 {
		t.Errorf("bind count %d after deactivation, expected 0", s.Bound(h))
	}
}

func TestActivate_NotReentrant(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if _, err := v.Activate(h, 1, 0); !errors.Is(err, ErrViewActive) {
		t.Fatalf("reactivation: expected ErrViewActive, got %v", err)
	}
	// The original activation survives a rejected reactivation.
	if !v.Active() || v.Level != 0 {
		t.Errorf("rejected reactivation disturbed the live binding")
	}
	v.Deactivate()
}

func TestActivate_SelectionNotFound(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	tests := []struct {
		name            string
		level, instance int
	}{
		{"level beyond hierarchy", 3, 0},
		{"negative level", -1, 0},
		{"instance beyond count", 0, 2},
		{"negative instance", 1, -1},
	}
	for _, tc := range tests {
		_, err := v.Activate(h, tc.level, tc.instance)
		if !errors.Is(err, block.ErrSelectionNotFound) {
			t.Errorf("%s: expected ErrSelectionNotFound, got %v", tc.name, err)
		}
		if v.Active() {
			t.Fatalf("%s: failed activation left the view active", tc.name)
		}
		if s.Bound(h) != 0 {
			t.Fatalf("%s: failed activation leaked a bind", tc.name)
		}
	}

	// A released handle is an unreachable selection too.
	if err := s.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := v.Activate(h, 0, 0); !errors.Is(err, block.ErrSelectionNotFound) {
		t.Errorf("released handle: expected ErrSelectionNotFound, got %v", err)
	}
}

func TestStaleAliases_FailFast(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	v.Deactivate()

	// Aliases are nil between activations; generic access errors.
	if v.W != nil || v.P != nil || v.Subfaces != nil {
		t.Error("aliases survive deactivation")
	}
	if _, err := v.Field(KindState); !errors.Is(err, block.ErrStaleView) {
		t.Errorf("Field on inactive view: expected ErrStaleView, got %v", err)
	}
	if _, _, err := v.Mirror(KindState); !errors.Is(err, block.ErrStaleView) {
		t.Errorf("Mirror on inactive view: expected ErrStaleView, got %v", err)
	}
	if !v.Token().Zero() {
		t.Error("inactive view issues a live token")
	}
}

func TestResize_InvalidatesAndRoundTrips(t *testing.T) {
	s, h := testStore(t, block.Options{})
	v := New(s)

	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	// Resizing under a live view is a contract violation.
	newExt := block.Extent{Nx: 12, Ny: 10, Nz: 8, Halo: 2}
	if err := s.Resize(h, newExt); !errors.Is(err, block.ErrHandleInUse) {
		t.Fatalf("resize under live view: expected ErrHandleInUse, got %v", err)
	}
	v.Deactivate()

	// After deactivation the resize succeeds and a fresh activation
	// sees exactly the new shape.
	if err := s.Resize(h, newExt); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate after resize failed: %v", err)
	}
	if v.Ext != newExt {
		t.Errorf("view extent %v after resize, expected %v", v.Ext, newExt)
	}
	if got, _ := v.Dw.Shape(); got != newExt {
		t.Errorf("residual shaped %v after resize, expected %v", got, newExt)
	}
	v.Deactivate()
}

func TestViews_IndependentContexts(t *testing.T) {
	// Two execution contexts with private views may bind different
	// blocks at once; the store counts both.
	s, h1 := testStore(t, block.Options{})
	h2, _ := s.Allocate(block.Spec{
		Key:    block.Key{GlobalID: 1},
		Extent: block.Extent{Nx: 6, Ny: 6, Nz: 6, Halo: 1},
	})

	v1, v2 := New(s), New(s)
	if _, err := v1.Activate(h1, 0, 0); err != nil {
		t.Fatalf("v1 Activate: %v", err)
	}
	if _, err := v2.Activate(h2, 0, 0); err != nil {
		t.Fatalf("v2 Activate: %v", err)
	}
	if v1.Key == v2.Key {
		t.Error("views bound to distinct blocks report the same key")
	}
	v1.Deactivate()
	v2.Deactivate()
}
