package v1

const (
	RedPacketCreatedEventType = "red_packet.created"
	RedPacketClaimedEventType = "red_packet.claimed"
	RedPacketEventsTopic      = "red_packet.events"
)

// RedPacketCreatedData is the payload of red_packet.created.
// Amounts are decimal strings in the base unit so 64-bit values survive
// JSON consumers that decode numbers as float64.
type RedPacketCreatedData struct {
	PacketID    uint64 `json:"packet_id"`
	Creator     string `json:"creator"`
	TotalAmount string `json:"total_amount"`
	PacketCount int    `json:"packet_count"`
	Message     string `json:"message,omitempty"`
}

// RedPacketClaimedData is the payload of red_packet.claimed.
type RedPacketClaimedData struct {
	PacketID         uint64 `json:"packet_id"`
	Claimer          string `json:"claimer"`
	Amount           string `json:"amount"`
	ShareIndex       int    `json:"share_index"`
	RemainingPackets int    `json:"remaining_packets"`
}
