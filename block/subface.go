package block

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FaceID names the six logical faces of a block.
type FaceID uint8

const (
	IMin FaceID = iota
	IMax
	JMin
	JMax
	KMin
	KMax
)

func (f FaceID) String() string {
	switch f {
	case IMin:
		return "iMin"
	case IMax:
		return "iMax"
	case JMin:
		return "jMin"
	case JMax:
		return "jMax"
	case KMin:
		return "kMin"
	case KMax:
		return "kMax"
	}
	return "unknown"
}

// IndexRange is an inclusive 2D index range on a block face, in the two
// logical directions tangent to that face.
type IndexRange struct {
	IBeg, IEnd int
	JBeg, JEnd int
}

// NI returns the number of points in the first tangent direction.
func (r IndexRange) NI() int { return r.IEnd - r.IBeg + 1 }

// NJ returns the number of points in the second tangent direction.
func (r IndexRange) NJ() int { return r.JEnd - r.JBeg + 1 }

// Count returns the total number of face points in the range.
func (r IndexRange) Count() int { return r.NI() * r.NJ() }

// Valid reports whether the range is non-empty.
func (r IndexRange) Valid() bool { return r.IEnd >= r.IBeg && r.JEnd >= r.JBeg }

func (r IndexRange) String() string {
	return fmt.Sprintf("[%d,%d]x[%d,%d]", r.IBeg, r.IEnd, r.JBeg, r.JEnd)
}

// Subface is a labeled portion of one block face carrying a boundary
// condition and, for connections, a pointer-free reference to the
// neighbor. A subface belongs to exactly one block.
type Subface struct {
	Face  FaceID
	Range IndexRange
	BC    BCType

	// Neighbor identification for connections (BCBlockMatch, BCOverset).
	// Global block id and owning process rank; -1 when not a connection.
	NeighborBlock int
	NeighborProc  int

	// Per-subface boundary data, sized to Range. Nil for kinds that
	// carry no external data.
	Data *BCData
}

// BCData holds externally supplied boundary values for one subface.
// Each array is a dense NI x NJ matrix over the subface range; row r,
// column c corresponds to face point (Range.IBeg+r, Range.JBeg+c), so a
// row-major traversal matches the order a flat external buffer was laid
// out in.
type BCData struct {
	// CpTarget is the target pressure coefficient distribution
	// (inverse-design boundaries, pressure outlets).
	CpTarget *mat.Dense

	// TWall is the prescribed wall temperature (isothermal walls).
	TWall *mat.Dense

	// QWall is the prescribed wall heat flux (heat-flux walls).
	QWall *mat.Dense

	// MassFlux is the prescribed mass flux (mass-flow inlets).
	MassFlux *mat.Dense
}

// newBCData allocates the data arrays appropriate for the boundary kind,
// sized to the subface range. Kinds with no external data return nil.
func newBCData(bc BCType, r IndexRange) *BCData {
	ni, nj := r.NI(), r.NJ()
	switch bc {
	case BCIsothermalWall:
		return &BCData{TWall: mat.NewDense(ni, nj, nil)}
	case BCHeatFluxWall:
		return &BCData{QWall: mat.NewDense(ni, nj, nil)}
	case BCWall, BCPressureOutlet:
		return &BCData{CpTarget: mat.NewDense(ni, nj, nil)}
	case BCMassFlowInlet:
		return &BCData{MassFlux: mat.NewDense(ni, nj, nil)}
	}
	return nil
}

// ViscSubface holds the viscous wall quantities computed on a no-slip
// wall subface: the three wall shear stress components and the wall heat
// flux, each sized to the subface range.
type ViscSubface struct {
	// Subface is the index of the owning subface in the block's
	// declaration-ordered subface list.
	Subface int

	Tau [3]*mat.Dense
	Q   *mat.Dense
}

func newViscSubface(idx int, r IndexRange) *ViscSubface {
	ni, nj := r.NI(), r.NJ()
	vs := &ViscSubface{Subface: idx, Q: mat.NewDense(ni, nj, nil)}
	for c := range vs.Tau {
		vs.Tau[c] = mat.NewDense(ni, nj, nil)
	}
	return vs
}
