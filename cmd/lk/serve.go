package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonnes/lekhak/server"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the chat HTTP server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(loadConfig(cmd))
			if err != nil {
				return err
			}
			defer a.close()

			svc, err := a.service(ctx, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(svc, a.logger)
			return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", a.cfg.Port))
		},
	}
}
