package telemetry

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int    `json:"birthTick"`
	MotherID   uint32 `json:"motherId,omitempty"`
	FatherID   uint32 `json:"fatherId,omitempty"`
	Generation int    `json:"generation"`

	Children    int `json:"children"`
	FightsWon   int `json:"fightsWon"`
	FightsLost  int `json:"fightsLost"`
	FoodEaten   int `json:"foodEaten"`
	PoisonEaten int `json:"poisonEaten"`

	PeakEnergy float64 `json:"peakEnergy"`
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent. Founders have zero parent ids.
func (lt *LifetimeTracker) Register(id uint32, birthTick, generation int, motherID, fatherID uint32, energy float64) {
	lt.stats[id] = &LifetimeStats{
		BirthTick:  birthTick,
		MotherID:   motherID,
		FatherID:   fatherID,
		Generation: generation,
		PeakEnergy: energy,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// Record applies one event to the agents it concerns.
func (lt *LifetimeTracker) Record(ev Event) {
	switch ev.Type {
	case EventBirth:
		if s := lt.stats[ev.AgentID]; s != nil {
			lt.recordChild(s.MotherID)
			lt.recordChild(s.FatherID)
		}
	case EventFight:
		if s := lt.stats[ev.AgentID]; s != nil {
			s.FightsWon++
		}
		if s := lt.stats[ev.OtherID]; s != nil {
			s.FightsLost++
		}
	case EventFood:
		if s := lt.stats[ev.AgentID]; s != nil {
			s.FoodEaten++
		}
	case EventPoison:
		if s := lt.stats[ev.AgentID]; s != nil {
			s.PoisonEaten++
		}
	}
}

func (lt *LifetimeTracker) recordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil {
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
