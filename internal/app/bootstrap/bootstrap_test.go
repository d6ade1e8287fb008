package bootstrap

import (
	"context"
	"testing"
	"time"

	redpacketservice "redpacket/contexts/escrow/red-packet-service"
	"redpacket/contexts/escrow/red-packet-service/application/commands"
	"redpacket/contexts/escrow/red-packet-service/application/queries"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/internal/platform/config"
	"redpacket/internal/platform/messaging"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		" 9000": ":9000",
		":7000": ":7000",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestAmountPolicyFromConfig(t *testing.T) {
	policy := amountPolicy(config.Config{PacketMode: config.PacketModeGeneral, FixedPacketAmount: 9})
	if policy.IsFixed() {
		t.Fatalf("general mode must not be fixed")
	}
	policy = amountPolicy(config.Config{PacketMode: config.PacketModeFixed, FixedPacketAmount: 9})
	if !policy.IsFixed() || policy.EffectiveFixedAmount() != 9 {
		t.Fatalf("unexpected fixed policy: %+v", policy)
	}
}

func TestEmbeddedPipelineProjectsActivity(t *testing.T) {
	module := redpacketservice.NewInMemoryModule(services.AmountPolicy{Mode: services.AmountModeGeneral}, nil)
	kafka, err := messaging.NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka failed: %v", err)
	}
	cfg := config.Config{OutboxPollInterval: 5 * time.Millisecond, EnableActivityFeed: true}
	pipeline := newEventPipeline(cfg, module.Store, module.Store, module.Store, module.Store, kafka, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pipeline.run(ctx)
	}()

	created, err := module.Handler.CreatePacket.Execute(ctx, commands.CreatePacketCommand{
		Creator: "0x1111111111111111111111111111111111111111",
		Amount:  10,
		Count:   2,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := module.Handler.ClaimPacket.Execute(ctx, commands.ClaimPacketCommand{
		PacketID: created.Packet.ID,
		Claimer:  "0x2222222222222222222222222222222222222222",
	}); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		feed, err := module.Handler.GetPacketActivity.Execute(ctx, queries.GetPacketActivityQuery{PacketID: created.Packet.ID})
		if err != nil {
			t.Fatalf("activity failed: %v", err)
		}
		if len(feed.Items) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected two activity entries, got %d", len(feed.Items))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("pipeline returned error: %v", err)
	}
}
