package block

// BCType identifies the boundary condition kind carried by a subface.
type BCType uint16

const (
	// BCNone indicates an interior face with no boundary condition.
	BCNone BCType = iota

	// Flow boundary conditions
	BCInflow   // Inflow/inlet boundary
	BCOutflow  // Outflow/outlet boundary
	BCWall     // No-slip adiabatic wall
	BCSlipWall // Slip/inviscid wall
	BCSymmetry // Symmetry plane
	BCFarfield // Far-field boundary

	// Thermal wall variants
	BCIsothermalWall // No-slip wall with prescribed temperature
	BCHeatFluxWall   // No-slip wall with prescribed heat flux

	// Connectivity
	BCBlockMatch // 1-to-1 abutting connection to a neighbor block
	BCOverset    // Overset interpolation boundary

	// Prescribed-data boundaries
	BCPressureOutlet // Pressure-specified outlet
	BCMassFlowInlet  // Mass flow rate inlet
)

// String returns the string representation of a BCType.
func (bc BCType) String() string {
	names := map[BCType]string{
		BCNone:           "None",
		BCInflow:         "Inflow",
		BCOutflow:        "Outflow",
		BCWall:           "Wall",
		BCSlipWall:       "SlipWall",
		BCSymmetry:       "Symmetry",
		BCFarfield:       "Farfield",
		BCIsothermalWall: "IsothermalWall",
		BCHeatFluxWall:   "HeatFluxWall",
		BCBlockMatch:     "BlockMatch",
		BCOverset:        "Overset",
		BCPressureOutlet: "PressureOutlet",
		BCMassFlowInlet:  "MassFlowInlet",
	}
	if name, ok := names[bc]; ok {
		return name
	}
	return "Unknown"
}

// IsWall reports whether the kind is any wall variant.
func (bc BCType) IsWall() bool {
	switch bc {
	case BCWall, BCSlipWall, BCIsothermalWall, BCHeatFluxWall:
		return true
	}
	return false
}

// IsViscousWall reports whether the kind is a no-slip wall, which
// carries viscous subface data (wall shear, heat flux).
func (bc BCType) IsViscousWall() bool {
	switch bc {
	case BCWall, BCIsothermalWall, BCHeatFluxWall:
		return true
	}
	return false
}

// IsConnection reports whether the subface connects to another block
// rather than closing the domain.
func (bc BCType) IsConnection() bool {
	return bc == BCBlockMatch || bc == BCOverset
}
