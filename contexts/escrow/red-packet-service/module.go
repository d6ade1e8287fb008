package redpacketservice

import (
	"log/slog"
	"time"

	httpadapter "redpacket/contexts/escrow/red-packet-service/adapters/http"
	"redpacket/contexts/escrow/red-packet-service/adapters/memory"
	"redpacket/contexts/escrow/red-packet-service/application/commands"
	"redpacket/contexts/escrow/red-packet-service/application/queries"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

// Module is the composition surface of the red packet context.
// Runtime wiring consumes Handler; Store is set only for the in-memory path.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Packets          ports.PacketRepository
	Idempotency      ports.IdempotencyStore
	Activity         ports.ActivityStore
	Random           ports.RandomSource
	Clock            ports.Clock
	IDGenerator      ports.IDGenerator
	AmountPolicy     services.AmountPolicy
	DefaultCount     int
	BaseUnitDecimals int32
	IdempotencyTTL   time.Duration
	Logger           *slog.Logger
}

// NewModule wires the ledger use cases against explicit ports.
func NewModule(deps Dependencies) Module {
	createPacket := commands.CreatePacketUseCase{
		Packets:        deps.Packets,
		Idempotency:    deps.Idempotency,
		Random:         deps.Random,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		AmountPolicy:   deps.AmountPolicy,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	claimPacket := commands.ClaimPacketUseCase{
		Packets:     deps.Packets,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	handler := httpadapter.Handler{
		CreatePacket: createPacket,
		ClaimPacket:  claimPacket,
		GetPacketInfo: queries.GetPacketInfoUseCase{
			Packets: deps.Packets,
			Logger:  deps.Logger,
		},
		HasClaimed: queries.HasClaimedUseCase{
			Packets: deps.Packets,
			Logger:  deps.Logger,
		},
		GetShareAmounts: queries.GetShareAmountsUseCase{
			Packets: deps.Packets,
			Logger:  deps.Logger,
		},
		ListPackets: queries.ListPacketsUseCase{
			Packets: deps.Packets,
			Logger:  deps.Logger,
		},
		PacketCount: queries.PacketCountUseCase{Packets: deps.Packets},
		GetPacketActivity: queries.GetPacketActivityUseCase{
			Activity: deps.Activity,
			Logger:   deps.Logger,
		},
		DefaultCount:     deps.DefaultCount,
		BaseUnitDecimals: deps.BaseUnitDecimals,
		Logger:           deps.Logger,
	}

	return Module{Handler: handler}
}

// NewInMemoryModule wires the use cases against a single in-memory store,
// which also serves as outbox, dedup and activity store for the workers.
func NewInMemoryModule(policy services.AmountPolicy, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Packets:          store,
		Idempotency:      store,
		Activity:         store,
		Random:           store,
		Clock:            store,
		IDGenerator:      store,
		AmountPolicy:     policy,
		BaseUnitDecimals: httpadapter.DefaultBaseUnitDecimals,
		IdempotencyTTL:   7 * 24 * time.Hour,
		Logger:           logger,
	})
	module.Store = store
	return module
}
