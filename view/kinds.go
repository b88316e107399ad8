package view

import "github.com/flowstruct/multiblock/block"

// ArrayKind names one of the per-block arrays exposed through the view.
// Kernels and tooling that address arrays generically (device mirrors,
// norm computations) resolve a kind against the active selection
// instead of holding raw references across activations.
type ArrayKind int

const (
	KindCoordinates ArrayKind = iota
	KindCoordinatesOld
	KindFaceAreaI
	KindFaceAreaJ
	KindFaceAreaK
	KindVolume
	KindState
	KindPressure
	KindViscosityLam
	KindViscosityEddy
	KindTurbulence
	KindResidual
	KindDissipation
	KindTimeStep

	numKinds
)

func (k ArrayKind) String() string {
	switch k {
	case KindCoordinates:
		return "x"
	case KindCoordinatesOld:
		return "xOld"
	case KindFaceAreaI:
		return "sI"
	case KindFaceAreaJ:
		return "sJ"
	case KindFaceAreaK:
		return "sK"
	case KindVolume:
		return "vol"
	case KindState:
		return "w"
	case KindPressure:
		return "p"
	case KindViscosityLam:
		return "rlv"
	case KindViscosityEddy:
		return "rev"
	case KindTurbulence:
		return "wTurb"
	case KindResidual:
		return "dw"
	case KindDissipation:
		return "fw"
	case KindTimeStep:
		return "dtl"
	}
	return "unknown"
}

// Differentiable reports whether the kind carries a shadow mirror in
// differentiated stores.
func (k ArrayKind) Differentiable() bool {
	switch k {
	case KindCoordinates, KindState, KindResidual,
		KindPressure, KindViscosityLam, KindViscosityEddy:
		return true
	}
	return false
}

// resolve maps a kind to the primal array of one LevelState. Returns
// nil for kinds the block does not carry (XOld on non-ALE blocks,
// WTurb without turbulence variables).
func resolve(ls *block.LevelState, k ArrayKind) block.Field {
	switch k {
	case KindCoordinates:
		return ls.X
	case KindCoordinatesOld:
		if ls.XOld == nil {
			return nil
		}
		return ls.XOld
	case KindFaceAreaI:
		return ls.SI
	case KindFaceAreaJ:
		return ls.SJ
	case KindFaceAreaK:
		return ls.SK
	case KindVolume:
		return ls.Vol
	case KindState:
		return ls.W
	case KindPressure:
		return ls.P
	case KindViscosityLam:
		return ls.Rlv
	case KindViscosityEddy:
		return ls.Rev
	case KindTurbulence:
		if ls.WTurb == nil {
			return nil
		}
		return ls.WTurb
	case KindResidual:
		return ls.Dw
	case KindDissipation:
		return ls.Fw
	case KindTimeStep:
		return ls.Dtl
	}
	return nil
}

// resolveShadow maps a differentiable kind to its mirror.
func resolveShadow(sh *block.Shadow, k ArrayKind) block.Field {
	if sh == nil {
		return nil
	}
	switch k {
	case KindCoordinates:
		return sh.X
	case KindState:
		return sh.W
	case KindResidual:
		return sh.Dw
	case KindPressure:
		return sh.P
	case KindViscosityLam:
		return sh.Rlv
	case KindViscosityEddy:
		return sh.Rev
	}
	return nil
}
