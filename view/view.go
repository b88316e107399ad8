// Package view provides the re-bindable block context: a per-execution-
// context aliasing structure that exposes whichever block, multigrid
// level, and time-spectral instance was last activated under stable,
// kernel-facing names. Kernels are written once against these names;
// sweeping the block set is an outer loop of activate, run, deactivate.
package view

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/flowstruct/multiblock/block"
)

// ErrViewActive reports an activation attempted while a token from a
// previous activation is still live. Activation is not reentrant within
// one execution context; deactivate first.
var ErrViewActive = errors.New("view already active")

// Token proves one activation. It is invalidated by Deactivate and by
// any later activation; holders (for example a device mirror) compare
// tokens to detect that the view has moved on.
type Token struct {
	seq uint64
}

// Zero reports whether the token was never issued.
func (t Token) Zero() bool { return t.seq == 0 }

// View is the block context of one execution context. It never owns
// data: every exported field below aliases storage inside the block of
// the current activation, and is nil between activations so stale
// access fails fast instead of reading another block's memory.
//
// A View must not be shared across concurrent execution contexts.
type View struct {
	store  *block.Store
	handle block.Handle
	blk    *block.Block
	state  *block.LevelState
	active bool
	seq    uint64

	// Selection scalars, derived at activation.
	Level, Instance int
	Key             block.Key
	Ext             block.Extent
	NState, NTurb   int
	RightHanded     bool
	Moving          bool
	ALE             bool

	// Geometry and metrics.
	X, XOld    *block.Array4
	SI, SJ, SK *block.Array4
	Vol        *block.Array3

	// Flow state.
	W     *block.Array4
	P     *block.Array3
	Rlv   *block.Array3
	Rev   *block.Array3
	WTurb *block.Array4

	// Residual and scratch.
	Dw  *block.Array4
	Fw  *block.Array4
	Dtl *block.Array3

	// Multigrid transfer and preconditioner buffers.
	Restrict  *mat.Dense
	FineIndex []int32
	PCFactor  []float64

	// Boundary and overset metadata, declaration order.
	Subfaces []*block.Subface
	Visc     []*block.ViscSubface
	Overset  *block.OversetData
}

// New creates an inactive view over a store. Each execution context
// owns exactly one.
func New(s *block.Store) *View {
	return &View{store: s}
}

// Activate rebinds the view to (handle, level, instance): it verifies
// the selection exists and its arrays agree on shape, computes the
// derived scalars, and points every alias at the selected block's
// arrays. The returned token stays live until Deactivate.
func (v *View) Activate(h block.Handle, level, instance int) (Token, error) {
	if v.active {
		return Token{}, fmt.Errorf("activate level %d instance %d: %w", level, instance, ErrViewActive)
	}
	blk, err := v.store.Bind(h)
	if err != nil {
		return Token{}, fmt.Errorf("activate level %d instance %d: %w", level, instance, err)
	}
	ls, ok := blk.State(level, instance)
	if !ok {
		v.store.Unbind(h)
		return Token{}, fmt.Errorf("%w: block %v has no level %d instance %d (levels %d, instances %d)",
			block.ErrSelectionNotFound, blk.Spec.Key, level, instance, blk.Spec.Levels, blk.Spec.Instances)
	}
	if err := checkState(&blk.Spec, ls); err != nil {
		v.store.Unbind(h)
		return Token{}, fmt.Errorf("block %v level %d instance %d: %w",
			blk.Spec.Key, level, instance, err)
	}

	v.handle = h
	v.blk = blk
	v.state = ls
	v.active = true
	v.seq++

	v.Level = level
	v.Instance = instance
	v.Key = blk.Spec.Key
	v.Ext = ls.Ext
	v.NState = blk.Spec.NState
	v.NTurb = blk.Spec.NTurb
	v.RightHanded = blk.Spec.RightHanded
	v.Moving = blk.Spec.Moving
	v.ALE = blk.Spec.ALE

	v.X = ls.X
	v.XOld = ls.XOld
	v.SI, v.SJ, v.SK = ls.SI, ls.SJ, ls.SK
	v.Vol = ls.Vol
	v.W = ls.W
	v.P = ls.P
	v.Rlv = ls.Rlv
	v.Rev = ls.Rev
	v.WTurb = ls.WTurb
	v.Dw = ls.Dw
	v.Fw = ls.Fw
	v.Dtl = ls.Dtl
	v.Restrict = ls.Restrict
	v.FineIndex = ls.FineIndex
	v.PCFactor = ls.PCFactor

	v.Subfaces = blk.Subfaces
	v.Visc = blk.Visc
	v.Overset = blk.Overset

	return Token{seq: v.seq}, nil
}

// Deactivate invalidates the current activation and nils every alias.
// Calling it on an inactive view is a no-op.
func (v *View) Deactivate() {
	if !v.active {
		return
	}
	v.store.Unbind(v.handle)
	v.active = false
	v.blk = nil
	v.state = nil

	v.Level, v.Instance = 0, 0
	v.Key = block.Key{}
	v.Ext = block.Extent{}
	v.NState, v.NTurb = 0, 0
	v.RightHanded, v.Moving, v.ALE = false, false, false

	v.X, v.XOld = nil, nil
	v.SI, v.SJ, v.SK = nil, nil, nil
	v.Vol = nil
	v.W = nil
	v.P, v.Rlv, v.Rev = nil, nil, nil
	v.WTurb = nil
	v.Dw, v.Fw = nil, nil
	v.Dtl = nil
	v.Restrict = nil
	v.FineIndex = nil
	v.PCFactor = nil
	v.Subfaces = nil
	v.Visc = nil
	v.Overset = nil
}

// Active reports whether an activation token is live.
func (v *View) Active() bool { return v.active }

// Token returns the live activation token, or the zero token when the
// view is inactive.
func (v *View) Token() Token {
	if !v.active {
		return Token{}
	}
	return Token{seq: v.seq}
}

// Handle returns the handle of the bound block. Valid only while
// active.
func (v *View) Handle() block.Handle { return v.handle }

// Field resolves an array kind against the active selection. Kinds the
// block does not carry (previous-step coordinates on a non-ALE block,
// turbulence arrays without turbulence variables) report
// ErrSelectionNotFound.
func (v *View) Field(kind ArrayKind) (block.Field, error) {
	if !v.active {
		return nil, fmt.Errorf("field %v: %w", kind, block.ErrStaleView)
	}
	f := resolve(v.state, kind)
	if f == nil {
		return nil, fmt.Errorf("%w: block %v carries no %v array",
			block.ErrSelectionNotFound, v.Key, kind)
	}
	return f, nil
}

// Mirror returns the shadow of a primal array kind for the active
// selection. On a non-differentiated store ok is false for every kind;
// on a differentiated store ok is true for exactly the differentiable
// kinds. Mirrors are never allocated here: presence was decided when
// the store was built.
func (v *View) Mirror(kind ArrayKind) (f block.Field, ok bool, err error) {
	if !v.active {
		return nil, false, fmt.Errorf("mirror %v: %w", kind, block.ErrStaleView)
	}
	f = resolveShadow(v.state.Shadow, kind)
	if f == nil {
		return nil, false, nil
	}
	return f, true, nil
}

// checkState verifies that every array of the selection was sized and
// agrees with the declared extents, shadow mirrors included.
func checkState(spec *block.Spec, ls *block.LevelState) error {
	for k := ArrayKind(0); k < numKinds; k++ {
		f := resolve(ls, k)
		if f == nil {
			// Optional arrays may be absent only when the block does
			// not declare them.
			if k == KindCoordinatesOld && !spec.ALE {
				continue
			}
			if k == KindTurbulence && spec.NTurb == 0 {
				continue
			}
			return fmt.Errorf("%w: %v array never sized", block.ErrDimensionMismatch, k)
		}
		want := ls.Ext
		wantVar := 1
		switch k {
		case KindCoordinates, KindCoordinatesOld:
			want = ls.Ext.Nodes()
			wantVar = 3
		case KindFaceAreaI, KindFaceAreaJ, KindFaceAreaK:
			wantVar = 3
		case KindState, KindResidual, KindDissipation:
			wantVar = spec.NState
		case KindTurbulence:
			wantVar = spec.NTurb
		}
		got, nvar := f.Shape()
		if got != want || nvar != wantVar {
			return fmt.Errorf("%w: %v array sized %v/%d, block declares %v/%d",
				block.ErrDimensionMismatch, k, got, nvar, want, wantVar)
		}
		if sh := resolveShadow(ls.Shadow, k); sh != nil && !block.SameShape(f, sh) {
			she, shn := sh.Shape()
			fe, fn := f.Shape()
			return fmt.Errorf("%w: %v shadow sized %v/%d, primal %v/%d",
				block.ErrDimensionMismatch, k, she, shn, fe, fn)
		}
	}
	return nil
}
