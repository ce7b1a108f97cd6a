package squares

// Actor identifies who is performing an operation.
type Actor struct {
	PlayerID uint
	Admin    bool
}

// Policy is the capability set an actor brings to a claim-engine call.
// Keeping the branches here, rather than on an actor-type string inside
// the state machine, keeps the transition rules testable on their own.
type Policy struct {
	BypassOpenCheck bool // may touch pools that are not open
	BypassApproval  bool // claims land as claimed even past the threshold
	BypassLimit     bool // not subject to max-per-player
}

// Policy derives the capability set from the actor type.
func (a Actor) Policy() Policy {
	if a.Admin {
		return Policy{BypassOpenCheck: true, BypassApproval: true, BypassLimit: true}
	}
	return Policy{}
}

func (a Actor) actorType() string {
	if a.Admin {
		return "admin"
	}
	return "player"
}
