package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func clearCmd() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Reset a session transcript and its history",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to --default-session)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(loadConfig(cmd))
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			session := sessionOrDefault(cmd, a.cfg)
			cleared, err := svc.ClearSession(ctx, session)
			if err != nil {
				return err
			}
			if cleared {
				fmt.Fprintf(cmd.Root().Writer, "%s: cleared\n", session)
			} else {
				fmt.Fprintf(cmd.Root().Writer, "%s: nothing to clear\n", session)
			}
			return nil
		},
	}
}
