package device

import (
	"errors"
	"testing"

	"github.com/flowstruct/multiblock/block"
	"github.com/flowstruct/multiblock/view"
)

func activeView(t *testing.T, opts block.Options) (*view.View, block.Handle) {
	t.Helper()
	s := block.NewStore(opts)
	h, err := s.Allocate(block.Spec{
		Key:    block.Key{GlobalID: 0},
		Extent: block.Extent{Nx: 6, Ny: 4, Nz: 4, Halo: 2},
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	v := view.New(s)
	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return v, h
}

func TestMirror_UploadDownloadRoundTrip(t *testing.T) {
	dev := CreateTestDevice()
	defer dev.Free()

	v, _ := activeView(t, block.Options{})
	defer v.Deactivate()

	m, err := NewMirror(dev, v)
	if err != nil {
		t.Fatalf("NewMirror failed: %v", err)
	}
	defer m.Free()

	if _, err := m.Bind(view.KindState, Copy); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if _, err := m.Bind(view.KindVolume, CopyTo); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	v.W.Fill(3.25)
	if err := m.Upload(); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	// Clobber the host array, pull the device copy back.
	v.W.Fill(0)
	if err := m.Download(); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	for n, x := range v.W.Values() {
		if x != 3.25 {
			t.Fatalf("entry %d is %v after download, expected 3.25", n, x)
		}
	}

	if m.Get(view.KindState).Memory() == nil {
		t.Error("bound array has no device memory")
	}
}

func TestMirror_RebindingRules(t *testing.T) {
	dev := CreateTestDevice()
	defer dev.Free()

	v, _ := activeView(t, block.Options{})
	defer v.Deactivate()

	m, err := NewMirror(dev, v)
	if err != nil {
		t.Fatalf("NewMirror failed: %v", err)
	}
	defer m.Free()

	if _, err := m.Bind(view.KindState, Copy); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if _, err := m.Bind(view.KindState, Copy); err == nil {
		t.Error("double bind of one kind must fail")
	}
	// Shadow residency is a store capability, not discovered here.
	if _, err := m.BindShadow(view.KindState, Copy); err == nil {
		t.Error("shadow bind on a plain store must fail")
	}
}

func TestMirror_ExpiredActivation(t *testing.T) {
	dev := CreateTestDevice()
	defer dev.Free()

	v, h := activeView(t, block.Options{})
	m, err := NewMirror(dev, v)
	if err != nil {
		t.Fatalf("NewMirror failed: %v", err)
	}
	defer m.Free()
	if _, err := m.Bind(view.KindState, Copy); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	// The view moves on; the mirror's token expires with it.
	v.Deactivate()
	if err := m.Upload(); !errors.Is(err, block.ErrStaleView) {
		t.Fatalf("upload on expired activation: expected ErrStaleView, got %v", err)
	}
	if _, err := v.Activate(h, 0, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	defer v.Deactivate()
	if err := m.Download(); !errors.Is(err, block.ErrStaleView) {
		t.Fatalf("download across reactivation: expected ErrStaleView, got %v", err)
	}
}

func TestMirror_DifferentiatedShadow(t *testing.T) {
	dev := CreateTestDevice()
	defer dev.Free()

	v, _ := activeView(t, block.Options{Differentiated: true})
	defer v.Deactivate()

	m, err := NewMirror(dev, v)
	if err != nil {
		t.Fatalf("NewMirror failed: %v", err)
	}
	defer m.Free()

	b, err := m.BindShadow(view.KindState, Copy)
	if err != nil {
		t.Fatalf("BindShadow failed: %v", err)
	}
	if b.Name != "wd" {
		t.Errorf("shadow binding named %q, expected wd", b.Name)
	}
}
