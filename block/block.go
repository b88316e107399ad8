package block

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Key is the hierarchy key identifying a block: the mesh section it was
// split from, its index within this process, and its index in the
// global block numbering.
type Key struct {
	Section  int
	LocalID  int
	GlobalID int
}

func (k Key) String() string {
	return fmt.Sprintf("sec %d local %d global %d", k.Section, k.LocalID, k.GlobalID)
}

// Spec declares a block to the store: its interior extents and halo on
// the finest level, how many multigrid levels and time-spectral
// instances it participates in, and its scalar attributes.
type Spec struct {
	Key    Key
	Extent Extent

	// Levels is the number of multigrid levels (>= 1, level 0 finest).
	Levels int

	// Instances is the number of time-spectral instances (>= 1).
	Instances int

	// StencilHalf is the half-width of the widest stencil the solver
	// will apply; the halo must be at least this wide.
	StencilHalf int

	// NState is the number of conserved variables per cell. Zero means
	// the standard five (mass, three momenta, energy).
	NState int

	// NTurb is the number of turbulence working variables per cell.
	NTurb int

	RightHanded bool
	Moving      bool
	ALE         bool
}

// DefaultNState is the conserved-variable count used when a Spec leaves
// NState zero.
const DefaultNState = 5

func (s *Spec) normalize() {
	if s.NState == 0 {
		s.NState = DefaultNState
	}
	if s.Levels == 0 {
		s.Levels = 1
	}
	if s.Instances == 0 {
		s.Instances = 1
	}
}

func (s *Spec) validate() error {
	if !s.Extent.Valid() {
		return fmt.Errorf("%w: extents %v", ErrInvalidDimension, s.Extent)
	}
	if s.Levels < 1 || s.Instances < 1 {
		return fmt.Errorf("%w: levels %d instances %d", ErrInvalidDimension, s.Levels, s.Instances)
	}
	if s.StencilHalf < 0 || s.Extent.Halo < s.StencilHalf {
		return fmt.Errorf("%w: halo %d narrower than stencil half-width %d",
			ErrInvalidDimension, s.Extent.Halo, s.StencilHalf)
	}
	if s.NState < 1 || s.NTurb < 0 {
		return fmt.Errorf("%w: nState %d nTurb %d", ErrInvalidDimension, s.NState, s.NTurb)
	}
	return nil
}

// Shadow holds the derivative mirrors of the differentiable primal
// arrays of one LevelState. Every mirror shares its primal's shape and
// is resized in lockstep with it. Present iff the store was built
// differentiated; never allocated lazily.
type Shadow struct {
	X   *Array4
	W   *Array4
	Dw  *Array4
	P   *Array3
	Rlv *Array3
	Rev *Array3
}

// LevelState owns every dense array of one block at one (multigrid
// level, time-spectral instance) selection. All arrays agree on Ext;
// resizing the block replaces the whole LevelState.
type LevelState struct {
	Ext Extent

	// Geometry. X and XOld are node-centered with three components;
	// XOld carries the previous-step coordinates for ALE motion.
	X    *Array4
	XOld *Array4

	// Metrics: directed face areas per coordinate direction and cell
	// volumes.
	SI, SJ, SK *Array4
	Vol        *Array3

	// Flow state and derived scalars.
	W   *Array4 // conserved variables
	P   *Array3 // static pressure
	Rlv *Array3 // laminar viscosity
	Rev *Array3 // eddy viscosity

	// Turbulence working array (nil when the block carries no
	// turbulence variables).
	WTurb *Array4

	// Residual and scratch.
	Dw  *Array4 // residual
	Fw  *Array4 // artificial dissipation / scratch
	Dtl *Array3 // local time-step scale

	// Multigrid transfer, set on every level below the finest.
	// Restrict holds one row of stencil weights per coarse cell;
	// FineIndex holds the matching flat fine-cell indices, -1 where the
	// stencil was clipped at a boundary.
	Restrict  *mat.Dense
	FineIndex []int32

	// Preconditioner factorization buffer, NState x NState per cell.
	PCFactor []float64

	// Shadow mirrors, nil unless the store is differentiated.
	Shadow *Shadow
}

const restrictStencil = 8 // 2x2x2 children per coarse cell

func newLevelState(spec *Spec, ext Extent, fine *Extent, differentiated bool) *LevelState {
	nodes := ext.Nodes()
	ls := &LevelState{
		Ext:      ext,
		X:        NewArray4(nodes, 3),
		SI:       NewArray4(ext, 3),
		SJ:       NewArray4(ext, 3),
		SK:       NewArray4(ext, 3),
		Vol:      NewArray3(ext),
		W:        NewArray4(ext, spec.NState),
		P:        NewArray3(ext),
		Rlv:      NewArray3(ext),
		Rev:      NewArray3(ext),
		Dw:       NewArray4(ext, spec.NState),
		Fw:       NewArray4(ext, spec.NState),
		Dtl:      NewArray3(ext),
		PCFactor: make([]float64, ext.Cells()*spec.NState*spec.NState),
	}
	if spec.ALE {
		ls.XOld = NewArray4(nodes, 3)
	}
	if spec.NTurb > 0 {
		ls.WTurb = NewArray4(ext, spec.NTurb)
	}
	if fine != nil {
		ls.Restrict, ls.FineIndex = buildRestriction(ext, *fine)
	}
	if differentiated {
		sh := &Shadow{
			X:   NewArray4(nodes, 3),
			W:   NewArray4(ext, spec.NState),
			Dw:  NewArray4(ext, spec.NState),
			P:   NewArray3(ext),
			Rlv: NewArray3(ext),
			Rev: NewArray3(ext),
		}
		ls.Shadow = sh
	}
	return ls
}

// buildRestriction computes the fine-to-coarse transfer operator: for
// each coarse interior cell, the flat indices of its 2x2x2 fine
// children and uniform averaging weights over the children that exist.
func buildRestriction(coarse, fine Extent) (*mat.Dense, []int32) {
	nc := coarse.Cells()
	weights := mat.NewDense(nc, restrictStencil, nil)
	index := make([]int32, nc*restrictStencil)

	row := 0
	for ci := 0; ci < coarse.Nx; ci++ {
		for cj := 0; cj < coarse.Ny; cj++ {
			for ck := 0; ck < coarse.Nz; ck++ {
				base := row * restrictStencil
				n := 0
				for di := 0; di < 2; di++ {
					for dj := 0; dj < 2; dj++ {
						for dk := 0; dk < 2; dk++ {
							fi, fj, fk := 2*ci+di, 2*cj+dj, 2*ck+dk
							s := di*4 + dj*2 + dk
							if fi >= fine.Nx || fj >= fine.Ny || fk >= fine.Nz {
								index[base+s] = -1
								continue
							}
							index[base+s] = int32((fi*fine.Ny+fj)*fine.Nz + fk)
							n++
						}
					}
				}
				if n > 0 {
					w := 1.0 / float64(n)
					for s := 0; s < restrictStencil; s++ {
						if index[base+s] >= 0 {
							weights.Set(row, s, w)
						}
					}
				}
				row++
			}
		}
	}
	return weights, index
}

// Block is the atomic unit of mesh and state: one structured subdomain
// with its own index space, owning dense arrays at every multigrid
// level and time-spectral instance it participates in, plus its
// boundary and overset metadata.
type Block struct {
	Spec Spec

	// states[level][instance]; level 0 is the finest grid.
	states [][]*LevelState

	// Subfaces in declaration order. External boundary data is loaded
	// in this order, so it is never re-sorted.
	Subfaces []*Subface

	// Visc holds viscous wall data for each no-slip wall subface, in
	// subface declaration order.
	Visc []*ViscSubface

	// Overset bookkeeping, nil for blocks outside overset assembly.
	Overset *OversetData
}

func newBlock(spec Spec, differentiated bool) *Block {
	b := &Block{Spec: spec}
	b.allocStates(differentiated)
	return b
}

func (b *Block) allocStates(differentiated bool) {
	b.states = make([][]*LevelState, b.Spec.Levels)
	ext := b.Spec.Extent
	var fine *Extent
	for l := 0; l < b.Spec.Levels; l++ {
		b.states[l] = make([]*LevelState, b.Spec.Instances)
		for s := 0; s < b.Spec.Instances; s++ {
			b.states[l][s] = newLevelState(&b.Spec, ext, fine, differentiated)
		}
		f := ext
		fine = &f
		ext = ext.Coarsen()
	}
}

// State returns the arrays at one (level, instance) selection.
func (b *Block) State(level, instance int) (*LevelState, bool) {
	if level < 0 || level >= len(b.states) {
		return nil, false
	}
	if instance < 0 || instance >= len(b.states[level]) {
		return nil, false
	}
	return b.states[level][instance], true
}

// Extent returns the interior extent at a multigrid level.
func (b *Block) Extent(level int) (Extent, bool) {
	ls, ok := b.State(level, 0)
	if !ok {
		return Extent{}, false
	}
	return ls.Ext, true
}

// AddSubface appends a subface in declaration order, allocating its
// boundary-data arrays and, for no-slip walls, its viscous descriptor.
func (b *Block) AddSubface(face FaceID, r IndexRange, bc BCType, neighborBlock, neighborProc int) (*Subface, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: subface range %v on %v", ErrInvalidDimension, r, face)
	}
	sf := &Subface{
		Face:          face,
		Range:         r,
		BC:            bc,
		NeighborBlock: neighborBlock,
		NeighborProc:  neighborProc,
		Data:          newBCData(bc, r),
	}
	if !bc.IsConnection() {
		sf.NeighborBlock = -1
		sf.NeighborProc = -1
	}
	b.Subfaces = append(b.Subfaces, sf)
	if bc.IsViscousWall() {
		b.Visc = append(b.Visc, newViscSubface(len(b.Subfaces)-1, r))
	}
	return sf, nil
}

// SetOverset installs the fringe/donor/orphan collections written by
// the external overset assembly. Stored as given, never modified.
func (b *Block) SetOverset(o *OversetData) {
	b.Overset = o
}
