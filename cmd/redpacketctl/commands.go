package main

import (
	"errors"

	httptransport "redpacket/contexts/escrow/red-packet-service/transport/http"

	"github.com/urfave/cli/v2"
)

func packetIDFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "id",
		Required: true,
		Usage:    "Packet id",
	}
}

var createCmd = &cli.Command{
	Name:  "create",
	Usage: "Escrow an amount into a new packet",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "amount",
			Required: true,
			Usage:    "Deposit in base units (wei)",
		},
		&cli.IntFlag{
			Name:  "count",
			Usage: "Number of shares (server default when omitted)",
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "Greeting shown with the packet",
		},
		&cli.StringFlag{
			Name:  "idempotency-key",
			Usage: "Replays return the original packet",
		},
	},
	Action: func(ctx *cli.Context) error {
		if ctx.String("user") == "" {
			return errors.New("--user or REDPACKET_USER is required")
		}
		req := httptransport.CreatePacketRequest{
			Amount:  ctx.String("amount"),
			Message: ctx.String("message"),
		}
		if ctx.IsSet("count") {
			count := ctx.Int("count")
			req.Count = &count
		}
		resp, err := clientFrom(ctx).CreatePacket(ctx.Context, req, ctx.String("idempotency-key"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var claimCmd = &cli.Command{
	Name:  "claim",
	Usage: "Claim the next share of a packet",
	Flags: []cli.Flag{packetIDFlag()},
	Action: func(ctx *cli.Context) error {
		if ctx.String("user") == "" {
			return errors.New("--user or REDPACKET_USER is required")
		}
		resp, err := clientFrom(ctx).ClaimPacket(ctx.Context, ctx.Uint64("id"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "Show a packet",
	Flags: []cli.Flag{packetIDFlag()},
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).GetPacket(ctx.Context, ctx.Uint64("id"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var hasClaimedCmd = &cli.Command{
	Name:  "has-claimed",
	Usage: "Check whether an identity claimed a packet",
	Flags: []cli.Flag{
		packetIDFlag(),
		&cli.StringFlag{
			Name:     "identity",
			Required: true,
			Usage:    "Claimant identity",
		},
	},
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).HasClaimed(ctx.Context, ctx.Uint64("id"), ctx.String("identity"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var sharesCmd = &cli.Command{
	Name:  "shares",
	Usage: "Show the share vector of a packet",
	Flags: []cli.Flag{packetIDFlag()},
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).ShareAmounts(ctx.Context, ctx.Uint64("id"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List packets",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "cursor", Usage: "Cursor from a previous page"},
		&cli.IntFlag{Name: "limit", Usage: "Page size (max 100)"},
	},
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).ListPackets(ctx.Context, ctx.String("cursor"), ctx.Int("limit"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var countCmd = &cli.Command{
	Name:  "count",
	Usage: "Show how many packets exist",
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).PacketCount(ctx.Context)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var activityCmd = &cli.Command{
	Name:  "activity",
	Usage: "Show the activity feed of a packet",
	Flags: []cli.Flag{packetIDFlag()},
	Action: func(ctx *cli.Context) error {
		resp, err := clientFrom(ctx).Activity(ctx.Context, ctx.Uint64("id"))
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}
