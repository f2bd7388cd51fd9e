package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a stored session transcript",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to --default-session)"},
			&cli.StringFlag{Name: "o", Usage: "Output format: terminal, html, json, pdf", Value: "terminal"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(loadConfig(cmd))
			if err != nil {
				return err
			}
			defer a.close()

			rnd, err := a.renderer(cmd.String("o"))
			if err != nil {
				return err
			}

			d, err := a.store.Load(ctx, sessionOrDefault(cmd, a.cfg))
			if err != nil {
				return err
			}
			if err := rnd.Render(cmd.Root().Writer, d); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return nil
		},
	}
}
