package httptransport

// Amount fields carry base-unit integers as decimal strings; *_display fields
// carry the same value in major units.

type CreatePacketRequest struct {
	Amount  string `json:"amount"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

type CreatePacketResponse struct {
	PacketID      uint64   `json:"packet_id"`
	TotalAmount   string   `json:"total_amount"`
	AmountDisplay string   `json:"amount_display"`
	PacketCount   int      `json:"packet_count"`
	ShareAmounts  []string `json:"share_amounts"`
	Replayed      bool     `json:"replayed,omitempty"`
}

type ClaimPacketResponse struct {
	PacketID         uint64 `json:"packet_id"`
	Claimer          string `json:"claimer"`
	Amount           string `json:"amount"`
	AmountDisplay    string `json:"amount_display"`
	RemainingPackets int    `json:"remaining_packets"`
	RemainingAmount  string `json:"remaining_amount"`
}

type PacketDTO struct {
	PacketID               uint64   `json:"packet_id"`
	Creator                string   `json:"creator"`
	TotalAmount            string   `json:"total_amount"`
	TotalAmountDisplay     string   `json:"total_amount_display"`
	RemainingAmount        string   `json:"remaining_amount"`
	RemainingAmountDisplay string   `json:"remaining_amount_display"`
	PacketCount            int      `json:"packet_count"`
	RemainingPackets       int      `json:"remaining_packets"`
	Claimants              []string `json:"claimants"`
	Message                string   `json:"message,omitempty"`
	Status                 string   `json:"status,omitempty"`
	CreatedAt              string   `json:"created_at,omitempty"`
}

type GetPacketResponse struct {
	Item   PacketDTO `json:"item"`
	Exists bool      `json:"exists"`
}

type HasClaimedResponse struct {
	PacketID uint64 `json:"packet_id"`
	Identity string `json:"identity"`
	Claimed  bool   `json:"claimed"`
}

type ShareAmountsResponse struct {
	PacketID     uint64   `json:"packet_id"`
	ShareAmounts []string `json:"share_amounts"`
}

type ListPacketsRequest struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListPacketsResponse struct {
	Items      []PacketDTO `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type PacketCountResponse struct {
	Count uint64 `json:"count"`
}

type ActivityDTO struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	Actor         string `json:"actor"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	OccurredAt    string `json:"occurred_at"`
}

type PacketActivityResponse struct {
	PacketID uint64        `json:"packet_id"`
	Items    []ActivityDTO `json:"items"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
