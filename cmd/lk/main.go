package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// Flags read their environment variables during parsing, so .env has to
	// be loaded before Run.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("failed to load .env", "err", err)
	}

	if err := newRoot().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRoot() *cli.Command {
	return &cli.Command{
		Name:  "lk",
		Usage: "Chat backend that keeps every conversation as a paginated PDF transcript",
		Description: `
  _      _    _           _
 | |___ | | _| |__   __ _| | __
 | / -_)| |/ / '_ \ / _' | |/ /
 |_\___||___/|_| |_|\__,_|_|\_\

 The writer of sessions: every question and answer, one page at a time.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "log",
				Usage:   "Log level: debug, info, warn, error",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		}, configFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			appendCmd(),
			renderCmd(),
			clearCmd(),
			uploadCmd(),
			sessionsCmd(),
		},
	}
}
