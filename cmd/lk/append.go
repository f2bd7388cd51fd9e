package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/transcript"
	"github.com/urfave/cli/v3"
)

func appendCmd() *cli.Command {
	return &cli.Command{
		Name:  "append",
		Usage: "Append a chat turn or a dealer record to a session transcript",
		Description: `Writes one page without calling the generation provider. Pass
--question and --answer for a chat page, or the three --dealer-* flags for a
dealer page.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to --default-session)"},
			&cli.StringFlag{Name: "question", Aliases: []string{"q"}, Usage: "Question text"},
			&cli.StringFlag{Name: "answer", Aliases: []string{"a"}, Usage: "Answer text"},
			&cli.StringFlag{Name: "dealer-name", Usage: "Dealer name"},
			&cli.StringFlag{Name: "dealer-info", Usage: "Dealer description"},
			&cli.StringFlag{Name: "dealer-number", Usage: "Dealer phone number"},
			&cli.BoolFlag{Name: "create", Usage: "Create the transcript when the session has none", Value: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(loadConfig(cmd))
			if err != nil {
				return err
			}
			defer a.close()

			session := sessionOrDefault(cmd, a.cfg)
			opts := transcript.Options{Create: cmd.Bool("create")}

			var d *core.Document
			switch {
			case cmd.String("dealer-name") != "" || cmd.String("dealer-info") != "" || cmd.String("dealer-number") != "":
				info := core.DealerInfo{
					Name:   cmd.String("dealer-name"),
					Info:   cmd.String("dealer-info"),
					Number: cmd.String("dealer-number"),
				}
				if a.redactor != nil {
					info = a.redactor.Dealer(info)
				}
				d, err = a.appender.AppendDealer(ctx, session, info, opts)
			case cmd.String("question") != "" || cmd.String("answer") != "":
				turn := core.ChatTurn{Question: cmd.String("question"), Answer: cmd.String("answer"), At: time.Now().UTC()}
				if a.redactor != nil {
					turn = a.redactor.Turn(turn)
				}
				d, err = a.appender.AppendChat(ctx, session, turn, opts)
			default:
				return fmt.Errorf("either --question/--answer or --dealer-* is required")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "%s: %d pages\n", session, d.PageCount())
			return nil
		},
	}
}

// sessionOrDefault returns --session, falling back to the configured default.
func sessionOrDefault(cmd *cli.Command, cfg config) string {
	if s := cmd.String("session"); s != "" {
		return s
	}
	return cfg.DefaultSession
}
