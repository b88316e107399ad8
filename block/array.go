package block

import "fmt"

// Extent describes the interior index space of a block along its three
// logical axes, plus the halo width the arrays are padded with.
type Extent struct {
	Nx, Ny, Nz int
	Halo       int
}

// Valid reports whether every axis extent is positive and the halo is
// non-negative.
func (e Extent) Valid() bool {
	return e.Nx > 0 && e.Ny > 0 && e.Nz > 0 && e.Halo >= 0
}

// Cells returns the number of interior cells.
func (e Extent) Cells() int {
	return e.Nx * e.Ny * e.Nz
}

// Full returns the halo-extended extent along each axis.
func (e Extent) Full() (int, int, int) {
	return e.Nx + 2*e.Halo, e.Ny + 2*e.Halo, e.Nz + 2*e.Halo
}

// Nodes returns the extent of the nodal (vertex-centered) index space
// with the same halo width.
func (e Extent) Nodes() Extent {
	return Extent{Nx: e.Nx + 1, Ny: e.Ny + 1, Nz: e.Nz + 1, Halo: e.Halo}
}

// Coarsen returns the extent one multigrid level coarser. Axes halve
// with floor and never drop below one cell; the halo width carries over.
func (e Extent) Coarsen() Extent {
	half := func(n int) int {
		if n <= 1 {
			return 1
		}
		return n / 2
	}
	return Extent{Nx: half(e.Nx), Ny: half(e.Ny), Nz: half(e.Nz), Halo: e.Halo}
}

func (e Extent) String() string {
	return fmt.Sprintf("(%d,%d,%d)+%dh", e.Nx, e.Ny, e.Nz, e.Halo)
}

// Field is the common face of the dense block arrays. The view layer and
// the device mirror address arrays through it without caring about rank.
type Field interface {
	// Shape returns the extent the array was sized to and the number of
	// variables per point (1 for scalar fields).
	Shape() (Extent, int)
	// Values returns the flat backing storage.
	Values() []float64
}

// Array3 is a dense scalar field over the halo-extended index space of
// one block. Indices are zero-based over the interior; halo points sit
// at negative indices and beyond the interior extent.
type Array3 struct {
	Ext  Extent
	Data []float64

	// Strides for the flattened layout, i outermost, k innermost.
	sy, sx int
}

// NewArray3 allocates a zeroed scalar field sized to ext.
func NewArray3(ext Extent) *Array3 {
	fx, fy, fz := ext.Full()
	return &Array3{
		Ext:  ext,
		Data: make([]float64, fx*fy*fz),
		sy:   fz,
		sx:   fy * fz,
	}
}

// Index flattens (i,j,k). Halo points use i in [-Halo, Nx-1+Halo].
func (a *Array3) Index(i, j, k int) int {
	h := a.Ext.Halo
	return (i+h)*a.sx + (j+h)*a.sy + (k + h)
}

func (a *Array3) At(i, j, k int) float64 {
	return a.Data[a.Index(i, j, k)]
}

func (a *Array3) Set(i, j, k int, v float64) {
	a.Data[a.Index(i, j, k)] = v
}

// Fill sets every entry, halo included.
func (a *Array3) Fill(v float64) {
	for n := range a.Data {
		a.Data[n] = v
	}
}

func (a *Array3) Shape() (Extent, int) { return a.Ext, 1 }
func (a *Array3) Values() []float64    { return a.Data }

// Array4 is a dense vector field: NVar values per point over the
// halo-extended index space. The variable index is innermost so the
// values of one point stay contiguous.
type Array4 struct {
	Ext  Extent
	NVar int
	Data []float64

	sy, sx, sp int
}

// NewArray4 allocates a zeroed vector field sized to ext with nvar
// values per point.
func NewArray4(ext Extent, nvar int) *Array4 {
	fx, fy, fz := ext.Full()
	return &Array4{
		Ext:  ext,
		NVar: nvar,
		Data: make([]float64, fx*fy*fz*nvar),
		sp:   nvar,
		sy:   fz * nvar,
		sx:   fy * fz * nvar,
	}
}

// Index flattens (i,j,k,m) with m in [0,NVar).
func (a *Array4) Index(i, j, k, m int) int {
	h := a.Ext.Halo
	return (i+h)*a.sx + (j+h)*a.sy + (k+h)*a.sp + m
}

func (a *Array4) At(i, j, k, m int) float64 {
	return a.Data[a.Index(i, j, k, m)]
}

func (a *Array4) Set(i, j, k, m int, v float64) {
	a.Data[a.Index(i, j, k, m)] = v
}

func (a *Array4) Fill(v float64) {
	for n := range a.Data {
		a.Data[n] = v
	}
}

func (a *Array4) Shape() (Extent, int) { return a.Ext, a.NVar }
func (a *Array4) Values() []float64    { return a.Data }

// SameShape reports whether two fields agree on extent and width.
func SameShape(a, b Field) bool {
	if a == nil || b == nil {
		return false
	}
	ae, an := a.Shape()
	be, bn := b.Shape()
	return ae == be && an == bn
}
