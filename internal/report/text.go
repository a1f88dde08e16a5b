package report

import (
	"fmt"
	"io"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

// RenderText writes a compact console summary. The anomaly list is assumed
// already ranked.
func RenderText(w io.Writer, summary *models.Summary) error {
	if _, err := fmt.Fprintf(w, "Accounts analyzed: %d, flagged: %d, anomalies: %d\n",
		summary.TotalAccounts, summary.AccountsFlagged, len(summary.Anomalies)); err != nil {
		return err
	}

	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if n := summary.BySeverity[sev]; n > 0 {
			if _, err := fmt.Fprintf(w, "  %-8s %d\n", sev, n); err != nil {
				return err
			}
		}
	}

	if len(summary.Anomalies) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, a := range summary.Anomalies {
		if _, err := fmt.Fprintf(w, "[%s] %s %s (%s): %s\n",
			a.Severity, a.Type, a.AccountCode, a.Period, a.Description); err != nil {
			return err
		}
	}

	for _, warn := range summary.Warnings {
		if _, err := fmt.Fprintf(w, "warning (%s): %s\n", warn.Code, warn.Message); err != nil {
			return err
		}
	}
	return nil
}
