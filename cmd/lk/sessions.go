package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sonnes/lekhak/core"
	htmlrender "github.com/sonnes/lekhak/render/html"
	"github.com/urfave/cli/v3"
)

func sessionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List known sessions from the manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "html", Usage: "Write an HTML index to this file instead of printing a table"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(loadConfig(cmd))
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.store.Sessions()
			if err != nil {
				return err
			}

			if out := cmd.String("html"); out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				r := htmlrender.New()
				r.SessionHref = func(id string) string { return id + ".pdf" }
				return r.RenderIndex(f, entries)
			}

			writeSessions(cmd.Root().Writer, entries)
			return nil
		},
	}
}

func writeSessions(w io.Writer, entries []core.ManifestEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}
	header := lipgloss.NewStyle().Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SESSION", "PAGES", "UPDATED", "UPLOADED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		})
	for _, e := range entries {
		updated := ""
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Local().Format("Jan 2, 2006 3:04 PM")
		}
		t.Row(e.SessionID, strconv.Itoa(e.PageCount), updated, e.UploadedURL)
	}
	fmt.Fprintln(w, t.String())
}
