package entities

import "time"

// Claim records one share withdrawn from a packet.
type Claim struct {
	PacketID         uint64
	Claimer          string
	Amount           uint64
	ShareIndex       int
	RemainingAmount  uint64
	RemainingPackets int
	ClaimedAt        time.Time
}

// ActivityType mirrors the integration event that produced an activity entry.
type ActivityType string

const (
	ActivityTypeCreated ActivityType = "created"
	ActivityTypeClaimed ActivityType = "claimed"
)

// ActivityEntry is the projected, read-only feed item built from packet events.
type ActivityEntry struct {
	EventID    string
	PacketID   uint64
	Type       ActivityType
	Actor      string
	Amount     uint64
	OccurredAt time.Time
}
