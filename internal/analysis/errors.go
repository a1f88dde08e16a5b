package analysis

import (
	"fmt"
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

// Warning codes surfaced in the summary.
const (
	WarnInsufficientPeriods = "insufficient_periods"
	WarnEmptyCategory       = "empty_category"
	WarnUnparsablePeriod    = "unparsable_period"
	WarnMissingValue        = "missing_value"
)

// ConfigurationError reports an engine configuration that cannot produce a
// meaningful analysis. It is returned before any account is processed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "analysis configuration error: " + e.Reason
}

// DataAlignmentError reports account series whose period labels do not
// match the snapshot's period set. Misaligned input fails the whole run;
// partial results over inconsistent periods would be misleading.
type DataAlignmentError struct {
	AccountCodes []string
	Reason       string
}

func (e *DataAlignmentError) Error() string {
	return fmt.Sprintf("data alignment error (%s): %s", strings.Join(e.AccountCodes, ", "), e.Reason)
}

func warnf(code, format string, args ...any) models.Warning {
	return models.Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
