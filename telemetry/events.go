// Package telemetry provides population tracking, bookmarking, and run output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
	EventFight
	EventFood
	EventPoison
)

var eventNames = [...]string{"birth", "death", "fight", "food", "poison"}

// String returns the event name.
func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// MarshalText encodes the event name for JSON frames.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DeathCause records what killed an agent. Starvation is the metabolism
// cost; exhaustion is the movement cost.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseStarvation
	CauseExhaustion
	CausePoison
	CauseCombat
)

var causeNames = [...]string{"none", "starvation", "exhaustion", "poison", "combat"}

const numCauses = len(causeNames)

// String returns the cause name.
func (c DeathCause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

// MarshalText encodes the cause name for JSON frames.
func (c DeathCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Event is a single thing that happened to an agent during a tick.
type Event struct {
	Type    EventType  `json:"type"`
	Tick    int        `json:"tick"`
	AgentID uint32     `json:"agent"`
	OtherID uint32     `json:"other,omitempty"` // mother for births, loser for fights
	Cause   DeathCause `json:"cause,omitempty"`
	Age     int        `json:"age,omitempty"` // age at death
}

// NewBirthEvent creates a birth event for child.
func NewBirthEvent(tick int, childID, motherID uint32) Event {
	return Event{Type: EventBirth, Tick: tick, AgentID: childID, OtherID: motherID}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int, agentID uint32, cause DeathCause, age int) Event {
	return Event{Type: EventDeath, Tick: tick, AgentID: agentID, Cause: cause, Age: age}
}

// NewFightEvent creates a fight event from the winner's side.
func NewFightEvent(tick int, winnerID, loserID uint32) Event {
	return Event{Type: EventFight, Tick: tick, AgentID: winnerID, OtherID: loserID}
}

// NewEatEvent creates a food or poison event.
func NewEatEvent(tick int, agentID uint32, poison bool) Event {
	t := EventFood
	if poison {
		t = EventPoison
	}
	return Event{Type: t, Tick: tick, AgentID: agentID}
}
