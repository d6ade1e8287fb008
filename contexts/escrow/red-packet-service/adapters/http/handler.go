package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/application/commands"
	"redpacket/contexts/escrow/red-packet-service/application/queries"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	httptransport "redpacket/contexts/escrow/red-packet-service/transport/http"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const DefaultBaseUnitDecimals = 18

type Handler struct {
	CreatePacket      commands.CreatePacketUseCase
	ClaimPacket       commands.ClaimPacketUseCase
	GetPacketInfo     queries.GetPacketInfoUseCase
	HasClaimed        queries.HasClaimedUseCase
	GetShareAmounts   queries.GetShareAmountsUseCase
	ListPackets       queries.ListPacketsUseCase
	PacketCount       queries.PacketCountUseCase
	GetPacketActivity queries.GetPacketActivityUseCase
	// DefaultCount is used when a create request omits count.
	DefaultCount int
	// BaseUnitDecimals scales *_display fields; 0 shows base units as is.
	BaseUnitDecimals int32
	Logger           *slog.Logger
}

// CreatePacketHandler godoc
// @Summary Create a red packet
// @Description Escrows amount and splits it into count random shares. Count defaults to 5.
// @Tags red-packets
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body httptransport.CreatePacketRequest true "Create payload"
// @Success 201 {object} httptransport.CreatePacketResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets [post]
func (h Handler) CreatePacketHandler(
	ctx context.Context,
	userID string,
	req httptransport.CreatePacketRequest,
	idempotencyKey string,
) (httptransport.CreatePacketResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("create packet request received",
		"event", "http_create_packet_received",
		"module", application.ModuleName,
		"layer", "transport",
		"user_id", userID,
	)

	amount, err := ParseBaseUnits(req.Amount)
	if err != nil {
		return httptransport.CreatePacketResponse{}, err
	}
	count := h.defaultCount()
	if req.Count != nil {
		count = *req.Count
	}

	result, err := h.CreatePacket.Execute(ctx, commands.CreatePacketCommand{
		Creator:        userID,
		Amount:         amount,
		Count:          count,
		Message:        req.Message,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		logger.Warn("create packet request failed",
			"event", "http_create_packet_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.CreatePacketResponse{}, err
	}

	packet := result.Packet
	return httptransport.CreatePacketResponse{
		PacketID:      packet.ID,
		TotalAmount:   formatBaseUnits(packet.TotalAmount),
		AmountDisplay: h.display(packet.TotalAmount),
		PacketCount:   packet.PacketCount,
		ShareAmounts:  formatShares(packet.ShareAmounts),
		Replayed:      result.Replayed,
	}, nil
}

// ClaimPacketHandler godoc
// @Summary Claim a share of a red packet
// @Description Withdraws the next share for the caller. One claim per identity; the creator cannot claim.
// @Tags red-packets
// @Produce json
// @Param X-User-Id header string true "Caller identity"
// @Param packet_id path integer true "Packet id"
// @Success 200 {object} httptransport.ClaimPacketResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/{packet_id}/claim [post]
func (h Handler) ClaimPacketHandler(
	ctx context.Context,
	userID string,
	rawPacketID string,
) (httptransport.ClaimPacketResponse, error) {
	packetID, err := ParsePacketID(rawPacketID)
	if err != nil {
		return httptransport.ClaimPacketResponse{}, err
	}
	result, err := h.ClaimPacket.Execute(ctx, commands.ClaimPacketCommand{
		PacketID: packetID,
		Claimer:  userID,
	})
	if err != nil {
		return httptransport.ClaimPacketResponse{}, err
	}
	claim := result.Claim
	return httptransport.ClaimPacketResponse{
		PacketID:         claim.PacketID,
		Claimer:          claim.Claimer,
		Amount:           formatBaseUnits(claim.Amount),
		AmountDisplay:    h.display(claim.Amount),
		RemainingPackets: claim.RemainingPackets,
		RemainingAmount:  formatBaseUnits(claim.RemainingAmount),
	}, nil
}

// GetPacketHandler godoc
// @Summary Get red packet info
// @Description Returns the packet view. Unknown ids return the empty view with exists=false.
// @Tags red-packets
// @Produce json
// @Param packet_id path integer true "Packet id"
// @Success 200 {object} httptransport.GetPacketResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/{packet_id} [get]
func (h Handler) GetPacketHandler(ctx context.Context, rawPacketID string) (httptransport.GetPacketResponse, error) {
	packetID, err := ParsePacketID(rawPacketID)
	if err != nil {
		return httptransport.GetPacketResponse{}, err
	}
	result, err := h.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: packetID})
	if err != nil {
		return httptransport.GetPacketResponse{}, err
	}
	return httptransport.GetPacketResponse{
		Item:   h.mapPacket(result.Packet),
		Exists: result.Found,
	}, nil
}

// HasClaimedHandler godoc
// @Summary Check whether an identity claimed a packet
// @Tags red-packets
// @Produce json
// @Param packet_id path integer true "Packet id"
// @Param identity path string true "Claimant identity"
// @Success 200 {object} httptransport.HasClaimedResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/{packet_id}/claims/{identity} [get]
func (h Handler) HasClaimedHandler(
	ctx context.Context,
	rawPacketID string,
	identity string,
) (httptransport.HasClaimedResponse, error) {
	packetID, err := ParsePacketID(rawPacketID)
	if err != nil {
		return httptransport.HasClaimedResponse{}, err
	}
	result, err := h.HasClaimed.Execute(ctx, queries.HasClaimedQuery{
		PacketID: packetID,
		Identity: identity,
	})
	if err != nil {
		return httptransport.HasClaimedResponse{}, err
	}
	return httptransport.HasClaimedResponse{
		PacketID: packetID,
		Identity: identity,
		Claimed:  result.Claimed,
	}, nil
}

// GetShareAmountsHandler godoc
// @Summary Get the share vector of a packet
// @Description Returns every precomputed share in claim order, including claimed ones.
// @Tags red-packets
// @Produce json
// @Param packet_id path integer true "Packet id"
// @Success 200 {object} httptransport.ShareAmountsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/{packet_id}/shares [get]
func (h Handler) GetShareAmountsHandler(ctx context.Context, rawPacketID string) (httptransport.ShareAmountsResponse, error) {
	packetID, err := ParsePacketID(rawPacketID)
	if err != nil {
		return httptransport.ShareAmountsResponse{}, err
	}
	result, err := h.GetShareAmounts.Execute(ctx, queries.GetShareAmountsQuery{PacketID: packetID})
	if err != nil {
		return httptransport.ShareAmountsResponse{}, err
	}
	return httptransport.ShareAmountsResponse{
		PacketID:     packetID,
		ShareAmounts: formatShares(result.Shares),
	}, nil
}

// ListPacketsHandler godoc
// @Summary List red packets
// @Description Lists packets in ascending id order with cursor pagination.
// @Tags red-packets
// @Produce json
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ListPacketsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets [get]
func (h Handler) ListPacketsHandler(ctx context.Context, req httptransport.ListPacketsRequest) (httptransport.ListPacketsResponse, error) {
	result, err := h.ListPackets.Execute(ctx, queries.ListPacketsQuery{
		Cursor: req.Cursor,
		Limit:  req.Limit,
	})
	if err != nil {
		return httptransport.ListPacketsResponse{}, err
	}
	items := make([]httptransport.PacketDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, h.mapPacket(item))
	}
	return httptransport.ListPacketsResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	}, nil
}

// PacketCountHandler godoc
// @Summary Count red packets
// @Description Returns the number of packets created, which is also the next id.
// @Tags red-packets
// @Produce json
// @Success 200 {object} httptransport.PacketCountResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/count [get]
func (h Handler) PacketCountHandler(ctx context.Context) (httptransport.PacketCountResponse, error) {
	count, err := h.PacketCount.Execute(ctx)
	if err != nil {
		return httptransport.PacketCountResponse{}, err
	}
	return httptransport.PacketCountResponse{Count: count}, nil
}

// GetPacketActivityHandler godoc
// @Summary Get packet activity feed
// @Description Returns created/claimed entries projected from packet events.
// @Tags red-packets
// @Produce json
// @Param packet_id path integer true "Packet id"
// @Success 200 {object} httptransport.PacketActivityResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/red-packets/{packet_id}/activity [get]
func (h Handler) GetPacketActivityHandler(ctx context.Context, rawPacketID string) (httptransport.PacketActivityResponse, error) {
	packetID, err := ParsePacketID(rawPacketID)
	if err != nil {
		return httptransport.PacketActivityResponse{}, err
	}
	result, err := h.GetPacketActivity.Execute(ctx, queries.GetPacketActivityQuery{PacketID: packetID})
	if err != nil {
		return httptransport.PacketActivityResponse{}, err
	}
	items := make([]httptransport.ActivityDTO, 0, len(result.Items))
	for _, entry := range result.Items {
		items = append(items, httptransport.ActivityDTO{
			EventID:       entry.EventID,
			Type:          string(entry.Type),
			Actor:         entry.Actor,
			Amount:        formatBaseUnits(entry.Amount),
			AmountDisplay: h.display(entry.Amount),
			OccurredAt:    entry.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.PacketActivityResponse{
		PacketID: packetID,
		Items:    items,
	}, nil
}

// ParsePacketID accepts the decimal form of a ledger id.
func ParsePacketID(raw string) (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, domainerrors.ErrInvalidPacketID
	}
	return value, nil
}

// ParseBaseUnits parses a non-negative decimal integer amount. Values that do
// not fit the ledger's 64-bit amounts are rejected rather than truncated.
func ParseBaseUnits(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, domainerrors.ErrInvalidAmount
	}
	value, err := uint256.FromDecimal(trimmed)
	if err != nil || !value.IsUint64() {
		return 0, domainerrors.ErrInvalidAmount
	}
	return value.Uint64(), nil
}

// DisplayAmount renders base units in major units, e.g. 1e14 wei -> "0.0001".
func DisplayAmount(amount uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -decimals).String()
}

func (h Handler) mapPacket(view entities.PacketView) httptransport.PacketDTO {
	createdAt := ""
	if !view.CreatedAt.IsZero() {
		createdAt = view.CreatedAt.UTC().Format(time.RFC3339)
	}
	claimants := view.Claimants
	if claimants == nil {
		claimants = []string{}
	}
	return httptransport.PacketDTO{
		PacketID:               view.ID,
		Creator:                view.Creator,
		TotalAmount:            formatBaseUnits(view.TotalAmount),
		TotalAmountDisplay:     h.display(view.TotalAmount),
		RemainingAmount:        formatBaseUnits(view.RemainingAmount),
		RemainingAmountDisplay: h.display(view.RemainingAmount),
		PacketCount:            view.PacketCount,
		RemainingPackets:       view.RemainingPackets,
		Claimants:              claimants,
		Message:                view.Message,
		Status:                 string(view.Status),
		CreatedAt:              createdAt,
	}
}

func (h Handler) display(amount uint64) string {
	decimals := h.BaseUnitDecimals
	if decimals < 0 {
		decimals = DefaultBaseUnitDecimals
	}
	return DisplayAmount(amount, decimals)
}

func (h Handler) defaultCount() int {
	if h.DefaultCount <= 0 {
		return entities.DefaultPacketCount
	}
	return h.DefaultCount
}

func formatBaseUnits(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func formatShares(shares []uint64) []string {
	out := make([]string, 0, len(shares))
	for _, share := range shares {
		out = append(out, formatBaseUnits(share))
	}
	return out
}
