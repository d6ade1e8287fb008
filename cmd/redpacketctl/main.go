package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := GetConfig()
	if err != nil {
		log.Fatalf("load cli config: %v", err)
	}

	app := &cli.App{
		Name:  "redpacketctl",
		Usage: "Create, claim and inspect red packets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Value: cfg.APIURL,
				Usage: "Base URL of the red packet API",
			},
			&cli.StringFlag{
				Name:  "user",
				Value: cfg.User,
				Usage: "Caller identity sent as X-User-Id",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: cfg.Timeout,
				Usage: "Request timeout",
			},
		},
		Commands: []*cli.Command{
			createCmd,
			claimCmd,
			infoCmd,
			hasClaimedCmd,
			sharesCmd,
			listCmd,
			countCmd,
			activityCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func clientFrom(ctx *cli.Context) *Client {
	return NewClient(ctx.String("api-url"), ctx.String("user"), ctx.Duration("timeout"))
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("print response: %w", err)
	}
	return nil
}
