package view

import (
	"iter"

	"github.com/flowstruct/multiblock/block"
)

// SubfacesOfType returns the bound block's subfaces of one boundary
// condition kind, lazily and in declaration order. The order is stable
// across repeated calls and matches the order external boundary data
// was loaded in, which callers writing into per-subface arrays depend
// on. A block with no matching subfaces yields an empty sequence.
//
// The sequence is only valid while the activation that produced it is
// live; an inactive view yields nothing.
func (v *View) SubfacesOfType(bc block.BCType) iter.Seq[*block.Subface] {
	return func(yield func(*block.Subface) bool) {
		if !v.active {
			return
		}
		for _, sf := range v.Subfaces {
			if sf.BC != bc {
				continue
			}
			if !yield(sf) {
				return
			}
		}
	}
}

// CountSubfaces returns the number of subfaces of one kind on the bound
// block.
func (v *View) CountSubfaces(bc block.BCType) int {
	n := 0
	for range v.SubfacesOfType(bc) {
		n++
	}
	return n
}

// Fringes returns the overset fringe records of the bound block, or nil
// for blocks outside overset assembly.
func (v *View) Fringes() []block.Fringe {
	if !v.active || v.Overset == nil {
		return nil
	}
	return v.Overset.Fringes
}

// Orphans returns the overset orphan cells of the bound block. Orphans
// are permissive: they degrade interpolation quality at those cells but
// never block the solver.
func (v *View) Orphans() []block.CellIndex {
	if !v.active || v.Overset == nil {
		return nil
	}
	return v.Overset.Orphans
}
