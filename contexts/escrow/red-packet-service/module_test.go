package redpacketservice_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	redpacketservice "redpacket/contexts/escrow/red-packet-service"
	"redpacket/contexts/escrow/red-packet-service/application/commands"
	"redpacket/contexts/escrow/red-packet-service/application/queries"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/domain/valueobjects"
)

const (
	owner = "0x1111111111111111111111111111111111111111"
	alice = "0x2222222222222222222222222222222222222222"
	bob   = "0x3333333333333333333333333333333333333333"
)

func fixedModule() redpacketservice.Module {
	return redpacketservice.NewInMemoryModule(services.AmountPolicy{Mode: services.AmountModeFixed}, nil)
}

func generalModule() redpacketservice.Module {
	return redpacketservice.NewInMemoryModule(services.AmountPolicy{Mode: services.AmountModeGeneral}, nil)
}

func create(t *testing.T, module redpacketservice.Module, amount uint64, count int) entities.Packet {
	t.Helper()
	result, err := module.Handler.CreatePacket.Execute(context.Background(), commands.CreatePacketCommand{
		Creator: owner,
		Amount:  amount,
		Count:   count,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return result.Packet
}

func claimAs(module redpacketservice.Module, packetID uint64, claimer string) (entities.Claim, error) {
	result, err := module.Handler.ClaimPacket.Execute(context.Background(), commands.ClaimPacketCommand{
		PacketID: packetID,
		Claimer:  claimer,
	})
	return result.Claim, err
}

func TestFixedPacketLifecycle(t *testing.T) {
	module := fixedModule()
	ctx := context.Background()

	packet := create(t, module, services.DefaultFixedAmount, 5)
	if packet.ID != 0 || packet.PacketCount != 5 || packet.RemainingAmount != services.DefaultFixedAmount {
		t.Fatalf("unexpected packet: %+v", packet)
	}

	shares, err := module.Handler.GetShareAmounts.Execute(ctx, queries.GetShareAmountsQuery{PacketID: packet.ID})
	if err != nil {
		t.Fatalf("shares failed: %v", err)
	}
	var sum uint64
	for _, share := range shares.Shares {
		if share == 0 {
			t.Fatalf("zero share in %v", shares.Shares)
		}
		sum += share
	}
	if len(shares.Shares) != 5 || sum != services.DefaultFixedAmount {
		t.Fatalf("shares must sum to the deposit, got %v", shares.Shares)
	}

	first, err := claimAs(module, packet.ID, alice)
	if err != nil {
		t.Fatalf("alice claim failed: %v", err)
	}
	if first.Amount != shares.Shares[0] || first.RemainingPackets != 4 {
		t.Fatalf("first claim must take share 0, got %+v", first)
	}

	info, err := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: packet.ID})
	if err != nil || !info.Found {
		t.Fatalf("info failed: %v", err)
	}
	if info.Packet.RemainingAmount != services.DefaultFixedAmount-first.Amount ||
		len(info.Packet.Claimants) != 1 || info.Packet.Claimants[0] != alice {
		t.Fatalf("unexpected info after claim: %+v", info.Packet)
	}

	claimed, err := module.Handler.HasClaimed.Execute(ctx, queries.HasClaimedQuery{PacketID: packet.ID, Identity: alice})
	if err != nil || !claimed.Claimed {
		t.Fatalf("expected alice to have claimed, got %+v err=%v", claimed, err)
	}
	claimed, _ = module.Handler.HasClaimed.Execute(ctx, queries.HasClaimedQuery{PacketID: packet.ID, Identity: bob})
	if claimed.Claimed {
		t.Fatalf("bob has not claimed yet")
	}

	if _, err := claimAs(module, packet.ID, alice); !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if _, err := claimAs(module, packet.ID, owner); !errors.Is(err, domainerrors.ErrSelfClaimForbidden) {
		t.Fatalf("expected self claim forbidden, got %v", err)
	}
}

func TestSingleSharePacket(t *testing.T) {
	module := fixedModule()
	packet := create(t, module, services.DefaultFixedAmount, 1)

	claim, err := claimAs(module, packet.ID, alice)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.Amount != services.DefaultFixedAmount || claim.RemainingAmount != 0 {
		t.Fatalf("single share must carry the full deposit, got %+v", claim)
	}
	if _, err := claimAs(module, packet.ID, bob); !errors.Is(err, domainerrors.ErrPacketExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	// Exhaustion is checked before self-claim.
	if _, err := claimAs(module, packet.ID, owner); !errors.Is(err, domainerrors.ErrPacketExhausted) {
		t.Fatalf("expected exhausted for creator, got %v", err)
	}
}

func TestUnknownPacketReads(t *testing.T) {
	module := fixedModule()
	ctx := context.Background()

	info, err := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: 999})
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if info.Found || info.Packet.Creator != valueobjects.ZeroIdentity || info.Packet.TotalAmount != 0 || len(info.Packet.Claimants) != 0 {
		t.Fatalf("expected sentinel view, got %+v", info)
	}
	claimed, err := module.Handler.HasClaimed.Execute(ctx, queries.HasClaimedQuery{PacketID: 999, Identity: alice})
	if err != nil || claimed.Claimed {
		t.Fatalf("expected false for unknown packet, got %+v err=%v", claimed, err)
	}
	shares, err := module.Handler.GetShareAmounts.Execute(ctx, queries.GetShareAmountsQuery{PacketID: 999})
	if err != nil || shares.Shares == nil || len(shares.Shares) != 0 {
		t.Fatalf("expected empty shares, got %v err=%v", shares.Shares, err)
	}
	if _, err := claimAs(module, 999, alice); !errors.Is(err, domainerrors.ErrPacketNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	fixed := fixedModule()
	general := generalModule()

	cases := []struct {
		name   string
		module redpacketservice.Module
		cmd    commands.CreatePacketCommand
		want   error
	}{
		{name: "zero amount", module: fixed, cmd: commands.CreatePacketCommand{Creator: owner, Amount: 0, Count: 5}, want: domainerrors.ErrInvalidAmount},
		{name: "wrong fixed amount", module: fixed, cmd: commands.CreatePacketCommand{Creator: owner, Amount: 5, Count: 5}, want: domainerrors.ErrWrongAmount},
		{name: "zero count", module: fixed, cmd: commands.CreatePacketCommand{Creator: owner, Amount: services.DefaultFixedAmount, Count: 0}, want: domainerrors.ErrInvalidCount},
		{name: "count over limit", module: fixed, cmd: commands.CreatePacketCommand{Creator: owner, Amount: services.DefaultFixedAmount, Count: 101}, want: domainerrors.ErrInvalidCount},
		{name: "missing creator", module: fixed, cmd: commands.CreatePacketCommand{Amount: services.DefaultFixedAmount, Count: 5}, want: domainerrors.ErrInvalidCaller},
		{name: "amount below count", module: general, cmd: commands.CreatePacketCommand{Creator: owner, Amount: 3, Count: 5}, want: domainerrors.ErrInvalidAllocation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.module.Handler.CreatePacket.Execute(context.Background(), tc.cmd)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	count, err := fixed.Handler.PacketCount.Execute(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("rejected creates must not consume ids, got %d err=%v", count, err)
	}
}

func TestGeneralModeAcceptsAnyAmount(t *testing.T) {
	module := generalModule()
	packet := create(t, module, 5, 5)
	for _, share := range packet.ShareAmounts {
		if share != 1 {
			t.Fatalf("5 over 5 shares must split evenly, got %v", packet.ShareAmounts)
		}
	}
}

func TestPacketsAreIndependent(t *testing.T) {
	module := fixedModule()
	first := create(t, module, services.DefaultFixedAmount, 1)
	second := create(t, module, services.DefaultFixedAmount, 2)
	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("expected ids 0 and 1, got %d and %d", first.ID, second.ID)
	}

	if _, err := claimAs(module, first.ID, alice); err != nil {
		t.Fatalf("claim on first failed: %v", err)
	}
	if _, err := claimAs(module, second.ID, alice); err != nil {
		t.Fatalf("claim on second failed: %v", err)
	}

	info, _ := module.Handler.GetPacketInfo.Execute(context.Background(), queries.GetPacketInfoQuery{PacketID: second.ID})
	if info.Packet.RemainingPackets != 1 {
		t.Fatalf("second packet should have one share left, got %+v", info.Packet)
	}
}

func TestCreateIdempotencyReplay(t *testing.T) {
	module := fixedModule()
	cmd := commands.CreatePacketCommand{
		Creator:        owner,
		Amount:         services.DefaultFixedAmount,
		Count:          3,
		IdempotencyKey: "req-1",
	}

	first, err := module.Handler.CreatePacket.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	replay, err := module.Handler.CreatePacket.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !replay.Replayed || replay.Packet.ID != first.Packet.ID {
		t.Fatalf("expected replay of packet %d, got %+v", first.Packet.ID, replay)
	}

	cmd.Count = 4
	if _, err := module.Handler.CreatePacket.Execute(context.Background(), cmd); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestListPacketsAndCount(t *testing.T) {
	module := fixedModule()
	for i := 0; i < 3; i++ {
		create(t, module, services.DefaultFixedAmount, 2)
	}

	page, err := module.Handler.ListPackets.Execute(context.Background(), queries.ListPacketsQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	rest, err := module.Handler.ListPackets.Execute(context.Background(), queries.ListPacketsQuery{Cursor: page.NextCursor, Limit: 2})
	if err != nil || len(rest.Items) != 1 || rest.Items[0].ID != 2 || rest.NextCursor != "" {
		t.Fatalf("unexpected second page: %+v err=%v", rest, err)
	}

	count, err := module.Handler.PacketCount.Execute(context.Background())
	if err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d err=%v", count, err)
	}
}

func TestFixedScenarioDrainsThroughUseCases(t *testing.T) {
	module := fixedModule()
	ctx := context.Background()

	packet := create(t, module, services.DefaultFixedAmount, 5)
	shares, err := module.Handler.GetShareAmounts.Execute(ctx, queries.GetShareAmountsQuery{PacketID: packet.ID})
	if err != nil || len(shares.Shares) != 5 {
		t.Fatalf("expected 5 shares, got %v err=%v", shares.Shares, err)
	}

	var paid uint64
	for k := 0; k < 5; k++ {
		claimer := fmt.Sprintf("0x%040x", k+0x100)
		claim, err := claimAs(module, packet.ID, claimer)
		if err != nil {
			t.Fatalf("claim %d failed: %v", k, err)
		}
		if claim.Amount != shares.Shares[k] {
			t.Fatalf("claim %d: expected share %d, got %d", k, shares.Shares[k], claim.Amount)
		}
		paid += shares.Shares[k]

		info, err := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: packet.ID})
		if err != nil {
			t.Fatalf("info after claim %d failed: %v", k, err)
		}
		if info.Packet.RemainingAmount != services.DefaultFixedAmount-paid || info.Packet.RemainingPackets != 4-k {
			t.Fatalf("after claim %d: expected remaining %d, got %+v", k, services.DefaultFixedAmount-paid, info.Packet)
		}
	}

	if _, err := claimAs(module, packet.ID, fmt.Sprintf("0x%040x", 0x200)); !errors.Is(err, domainerrors.ErrPacketExhausted) {
		t.Fatalf("expected sixth claimer to hit exhausted, got %v", err)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	module := fixedModule()
	ctx := context.Background()

	packet := create(t, module, services.DefaultFixedAmount, 3)
	if _, err := claimAs(module, packet.ID, alice); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	for _, id := range []uint64{packet.ID, 999} {
		firstInfo, err := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: id})
		if err != nil {
			t.Fatalf("info %d failed: %v", id, err)
		}
		secondInfo, err := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: id})
		if err != nil {
			t.Fatalf("repeat info %d failed: %v", id, err)
		}
		if !reflect.DeepEqual(firstInfo, secondInfo) {
			t.Fatalf("info %d changed between reads: %+v vs %+v", id, firstInfo, secondInfo)
		}

		for _, identity := range []string{alice, bob} {
			query := queries.HasClaimedQuery{PacketID: id, Identity: identity}
			first, err := module.Handler.HasClaimed.Execute(ctx, query)
			if err != nil {
				t.Fatalf("has claimed %d/%s failed: %v", id, identity, err)
			}
			second, err := module.Handler.HasClaimed.Execute(ctx, query)
			if err != nil {
				t.Fatalf("repeat has claimed %d/%s failed: %v", id, identity, err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("has claimed %d/%s changed between reads: %+v vs %+v", id, identity, first, second)
			}
		}
	}

	info, _ := module.Handler.GetPacketInfo.Execute(ctx, queries.GetPacketInfoQuery{PacketID: packet.ID})
	if info.Packet.RemainingPackets != 2 {
		t.Fatalf("reads must not consume shares, got %+v", info.Packet)
	}
}

func TestConcurrentCreatesShareIdempotencyKey(t *testing.T) {
	module := fixedModule()
	cmd := commands.CreatePacketCommand{
		Creator:        owner,
		Amount:         services.DefaultFixedAmount,
		Count:          2,
		IdempotencyKey: "burst-1",
	}

	const workers = 8
	results := make([]commands.CreatePacketResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = module.Handler.CreatePacket.Execute(context.Background(), cmd)
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if results[i].Packet.ID != results[0].Packet.ID {
			t.Fatalf("request %d got packet %d, expected %d", i, results[i].Packet.ID, results[0].Packet.ID)
		}
		if !results[i].Replayed {
			created++
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one non-replayed create, got %d", created)
	}

	count, err := module.Handler.PacketCount.Execute(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("expected a single packet, got %d err=%v", count, err)
	}
}

func TestConcurrentCreatesWithConflictingPayloads(t *testing.T) {
	module := fixedModule()

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = module.Handler.CreatePacket.Execute(context.Background(), commands.CreatePacketCommand{
				Creator:        owner,
				Amount:         services.DefaultFixedAmount,
				Count:          i + 1,
				IdempotencyKey: "burst-2",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict):
			t.Fatalf("request %d: expected conflict, got %v", i, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected one winner, got %d", succeeded)
	}
	count, _ := module.Handler.PacketCount.Execute(context.Background())
	if count != 1 {
		t.Fatalf("expected a single packet, got %d", count)
	}
}
