package block

// CellIndex addresses one cell in a block's interior index space.
type CellIndex struct {
	I, J, K int
}

// Fringe records one overset interpolation relationship: the receiver
// cell in the owning block takes its value from a trilinear combination
// of the donor stencil rooted at Donor in DonorBlock. The record
// references the donor, it never owns it.
type Fringe struct {
	Receiver CellIndex

	DonorBlock int // global block id of the donor
	DonorProc  int // owning process rank of the donor
	Donor      CellIndex

	// Weights of the 2x2x2 donor stencil, ordered k innermost.
	Weights [8]float64
}

// OversetData is the per-block overset bookkeeping written by the
// external assembly step and exposed unmodified through the view.
// Orphans are cells for which no valid donor was found; they are
// counted, not treated as failures, so the caller can decide whether to
// accept degraded data at those cells.
type OversetData struct {
	Fringes []Fringe
	Orphans []CellIndex
}

// OrphanCount returns the number of receiver cells without a donor.
func (o *OversetData) OrphanCount() int {
	if o == nil {
		return 0
	}
	return len(o.Orphans)
}

// DonorBlocks returns the distinct donor block ids referenced by the
// fringe list, in first-appearance order.
func (o *OversetData) DonorBlocks() []int {
	if o == nil {
		return nil
	}
	seen := make(map[int]bool)
	var ids []int
	for _, f := range o.Fringes {
		if !seen[f.DonorBlock] {
			seen[f.DonorBlock] = true
			ids = append(ids, f.DonorBlock)
		}
	}
	return ids
}
