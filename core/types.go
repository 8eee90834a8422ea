package core

import "math"

// VarId is the dense, stable integer identity of a variable. Variables
// are never reallocated: an id handed out by Domains.NewVar remains
// valid for the lifetime of the Solver.
type VarId uint32

// ZeroVar is the variable always bound to the constant 0, allocated by
// every solver at construction time. It never gets additional trail
// events: its domain is [0,0] and its presence is permanently true.
const ZeroVar VarId = 0

// DecLvl is a decision level / save-point index into the Trail.
type DecLvl uint32

// RootLvl is the decision level before any decision has been made.
const RootLvl DecLvl = 0

// IntCst is a bounded-integer constant. MinIntCst/MaxIntCst (half the
// int32 range) stand in for -infinity/+infinity; Add saturates at them
// rather than overflowing so that a bound update can never wrap around.
type IntCst int32

const (
	// MinIntCst and MaxIntCst bound every variable domain. They leave
	// headroom below the int32 range so that `-v` (used to encode
	// lower bounds, see sv.SignedVar) never overflows.
	MinIntCst IntCst = math.MinInt32 / 2
	MaxIntCst IntCst = math.MaxInt32 / 2
)

// Add saturates instead of overflowing.
func (c IntCst) Add(d IntCst) IntCst {
	sum := int64(c) + int64(d)
	if sum > int64(MaxIntCst) {
		return MaxIntCst
	}
	if sum < int64(MinIntCst) {
		return MinIntCst
	}
	return IntCst(sum)
}

// TheoryId identifies a registered theory plug-in; used as the origin
// tag on trail events produced by Domains.set(_, TheoryInference(id, payload)).
type TheoryId uint16

// Payload is the theory-opaque tag attached to a TheoryInference origin,
// decoded only by the theory that produced it, per spec §4.4.
type Payload uint32

// ClauseId is the dense index of a clause in the clause database.
type ClauseId uint32
