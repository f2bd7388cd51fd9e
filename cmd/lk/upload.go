package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func uploadCmd() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Archive a session transcript to the configured blob store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id (defaults to --default-session)"},
			&cli.StringFlag{Name: "delete-prefix", Usage: "Instead of uploading, delete archived objects under this prefix"},
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

			if prefix := cmd.String("delete-prefix"); prefix != "" {
				n, err := svc.DeleteUploads(ctx, prefix)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.Root().Writer, "deleted %d objects\n", n)
				return nil
			}

			up, err := svc.UploadSession(ctx, sessionOrDefault(cmd, a.cfg))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, up.URL)
			return nil
		},
	}
}
