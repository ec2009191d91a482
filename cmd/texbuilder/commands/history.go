package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" default:"20" help:"Number of builds to show"`
	JSON  bool `help:"Print the builds as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("build history is disabled").
			WithContext("setting", "history.enabled").
			Build()
	}

	hist, err := eventstore.OpenHistory(context.Background(), cfg.History.Path, 0)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	builds := hist.Projection().GetHistory()
	if h.Limit > 0 && h.Limit < len(builds) {
		builds = builds[:h.Limit]
	}
	if h.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}
	return writeHistory(stdout, builds)
}

func writeHistory(w io.Writer, builds []eventstore.BuildSummary) error {
	if len(builds) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSTATUS\tDOCUMENT\tTRIGGER\tDURATION\tBUILD")
	for _, b := range builds {
		detail := b.BuildID
		switch {
		case b.ErrorMessage != "":
			detail += "  " + b.ErrorStage + ": " + b.ErrorMessage
		case b.SkipReason != "":
			detail += "  " + b.SkipReason
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime),
			b.Status,
			b.DocumentID,
			b.Trigger,
			b.Duration.Round(time.Millisecond),
			detail)
	}
	return tw.Flush()
}
