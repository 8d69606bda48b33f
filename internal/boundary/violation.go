package boundary

import (
	"fmt"

	"engineguard/internal/reftree"
)

// Tier identifies which protection rule produced a violation and selects
// the diagnostic message.
type Tier int

const (
	// TierStandard: the accessed engine is protected and the reference went
	// around its declared API surface.
	TierStandard Tier = iota
	// TierStrongInbound: the accessed engine is strongly protected.
	TierStrongInbound
	// TierStrongOutbound: the current engine is strongly protected and may
	// not reach across its own boundary.
	TierStrongOutbound
)

func (t Tier) String() string {
	switch t {
	case TierStrongInbound:
		return "strong_inbound"
	case TierStrongOutbound:
		return "strong_outbound"
	default:
		return "standard"
	}
}

const (
	msgStandard       = "Direct access of %s engine. Only access engine via %s::Api."
	msgStrongInbound  = "All direct access of %s engine disallowed because it is in StronglyProtectedEngines list."
	msgStrongOutbound = "Direct access of %s is disallowed in this file because it's in the %s engine, which is in the StronglyProtectedEngines list."
)

type Violation struct {
	Engine        string
	CurrentEngine string
	Tier          Tier
	Message       string
	Location      reftree.Location
}

func newViolation(engine, current string, tier Tier, loc reftree.Location) Violation {
	v := Violation{
		Engine:        engine,
		CurrentEngine: current,
		Tier:          tier,
		Location:      loc,
	}
	switch tier {
	case TierStrongInbound:
		v.Message = fmt.Sprintf(msgStrongInbound, engine)
	case TierStrongOutbound:
		v.Message = fmt.Sprintf(msgStrongOutbound, engine, current)
	default:
		v.Message = fmt.Sprintf(msgStandard, engine, engine)
	}
	return v
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", v.Location.File, v.Location.Line, v.Location.Column, v.Message)
}
