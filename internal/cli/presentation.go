package cli

import (
	"fmt"
	"io"

	"github.com/BlankParticle/preview-pkg/internal/cli/ui/styles"
	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/publish"
)

// renderSummary prints the per-package outcomes of a publish run.
func renderSummary(w io.Writer, summary *publish.Summary) {
	fmt.Fprintln(w, styles.Theme.Title.Render(fmt.Sprintf("publish %s (version %s)", summary.Identity, summary.Version)))

	for _, r := range summary.Results {
		var badge string
		switch r.Outcome {
		case domain.OutcomePublished:
			badge = styles.Theme.Success.Render("published")
		case domain.OutcomeAlreadyExists:
			badge = styles.Theme.Info.Render("already exists")
		case domain.OutcomeConflict:
			badge = styles.Theme.Error.Render("conflict")
		default:
			badge = styles.Theme.Error.Render("error")
		}

		fmt.Fprintf(w, "  %s  %s\n", badge, styles.Theme.Key.Render(r.Coordinate.String()))
		if r.Outcome == domain.OutcomeConflict || r.Outcome == domain.OutcomeError {
			fmt.Fprintf(w, "      %s\n", styles.Theme.Muted.Render(r.Message))
		}
	}

	for _, s := range summary.Skips {
		fmt.Fprintf(w, "  %s  %s %s\n",
			styles.Theme.Warning.Render("skipped"),
			styles.Theme.Key.Render(s.Dir),
			styles.Theme.Muted.Render("("+s.Reason+")"))
	}

	for _, err := range summary.RestoreErrs {
		fmt.Fprintf(w, "  %s  %s\n",
			styles.Theme.Error.Render("restore failed"),
			styles.Theme.Muted.Render(err.Error()))
	}
}
