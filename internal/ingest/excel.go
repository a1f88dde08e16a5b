// Package ingest loads statement snapshots from Excel workbooks. Sheets
// are classified as balance sheet or income statement by name keywords and
// merged into one snapshot over a shared period set.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// Loader parses statement workbooks into snapshots.
type Loader struct {
	catalog    *catalog.Catalog
	bsKeywords []string
	isKeywords []string
}

// NewLoader builds a loader. Keyword lists classify sheet names; matching
// is case-insensitive substring.
func NewLoader(cat *catalog.Catalog, bsKeywords, isKeywords []string) *Loader {
	if len(bsKeywords) == 0 {
		bsKeywords = []string{"balance", "bs"}
	}
	if len(isKeywords) == 0 {
		isKeywords = []string{"income", "p&l", "pl", "is"}
	}
	return &Loader{catalog: cat, bsKeywords: bsKeywords, isKeywords: isKeywords}
}

// Load opens the workbook and parses every recognized statement sheet.
// Sheets that match neither keyword list are ignored. All parsed sheets
// must agree on the period columns.
func (l *Loader) Load(path string) (*models.Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	snap := &models.Snapshot{Source: path}
	parsed := 0

	for _, sheet := range f.GetSheetList() {
		stmtType, ok := l.classifySheet(sheet)
		if !ok {
			log.Debug().Str("sheet", sheet).Msg("sheet matched no statement keywords, skipping")
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}

		if err := l.parseSheet(snap, sheet, stmtType, rows); err != nil {
			return nil, err
		}
		parsed++
	}

	// No keyword hits: fall back to any sheet whose header looks like a
	// statement table. Statement type then comes from the catalog per
	// account.
	if parsed == 0 {
		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
			}
			if !looksLikeStatement(rows) {
				continue
			}
			log.Warn().Str("sheet", sheet).Msg("no sheet matched statement keywords; parsing by table shape")
			if err := l.parseSheet(snap, sheet, "", rows); err != nil {
				return nil, err
			}
			parsed++
		}
	}

	if parsed == 0 {
		return nil, fmt.Errorf("no statement sheets recognized in %s", path)
	}
	if len(snap.Periods) < 1 {
		return nil, fmt.Errorf("no period columns found in %s", path)
	}

	log.Info().
		Str("source", path).
		Int("sheets", parsed).
		Int("accounts", len(snap.Accounts)).
		Int("periods", len(snap.Periods)).
		Msg("workbook loaded")

	return snap, nil
}

func (l *Loader) classifySheet(name string) (models.StatementType, bool) {
	lower := strings.ToLower(name)
	for _, kw := range l.bsKeywords {
		if strings.Contains(lower, kw) {
			return models.BalanceSheet, true
		}
	}
	for _, kw := range l.isKeywords {
		if strings.Contains(lower, kw) {
			return models.IncomeStatement, true
		}
	}
	return "", false
}

// parseSheet reads one statement sheet. The header row names an account
// code column, an optional account name column, and one column per period;
// everything after the name column is treated as period data.
func (l *Loader) parseSheet(snap *models.Snapshot, sheet string, stmtType models.StatementType, rows [][]string) error {
	if len(rows) < 2 {
		return fmt.Errorf("sheet %q has no data rows", sheet)
	}

	header := rows[0]
	codeCol, nameCol, periodStart := locateColumns(header)
	if codeCol < 0 {
		return fmt.Errorf("sheet %q has no account code column", sheet)
	}
	if periodStart >= len(header) {
		return fmt.Errorf("sheet %q has no period columns", sheet)
	}

	periods := make([]string, 0, len(header)-periodStart)
	for _, h := range header[periodStart:] {
		label := strings.TrimSpace(h)
		if label == "" {
			break
		}
		periods = append(periods, label)
	}
	if len(periods) == 0 {
		return fmt.Errorf("sheet %q has no period columns", sheet)
	}

	if snap.Periods == nil {
		snap.Periods = periods
	} else if !equalPeriods(snap.Periods, periods) {
		return fmt.Errorf("sheet %q periods %v do not match %v", sheet, periods, snap.Periods)
	}

	for i, row := range rows[1:] {
		code := cell(row, codeCol)
		if code == "" {
			continue
		}

		acct := l.resolveAccount(code, cell(row, nameCol), stmtType)
		series := models.AccountSeries{Account: acct}
		for j, period := range periods {
			raw := cell(row, periodStart+j)
			value, missing, err := parseNumber(raw)
			if err != nil {
				return fmt.Errorf("sheet %q row %d: bad value %q for period %s: %w", sheet, i+2, raw, period, err)
			}
			series.Values = append(series.Values, models.PeriodValue{Period: period, Value: value, Missing: missing})
		}
		snap.Accounts = append(snap.Accounts, series)
	}

	return nil
}

// locateColumns finds the code and name columns in the header. A header
// cell containing "code" marks the code column and "name" the name column;
// without labeled headers the first two columns are assumed.
func locateColumns(header []string) (codeCol, nameCol, periodStart int) {
	codeCol, nameCol = -1, -1
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case codeCol < 0 && strings.Contains(lower, "code"):
			codeCol = i
		case nameCol < 0 && strings.Contains(lower, "name"):
			nameCol = i
		}
	}
	if codeCol < 0 && nameCol < 0 {
		codeCol, nameCol = 0, 1
	} else if nameCol < 0 {
		nameCol = codeCol
	}
	periodStart = codeCol
	if nameCol > periodStart {
		periodStart = nameCol
	}
	periodStart++
	return codeCol, nameCol, periodStart
}

// looksLikeStatement reports whether a sheet's header row resembles an
// account table: a labeled code or account column plus data columns.
func looksLikeStatement(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	for _, h := range rows[0] {
		lower := strings.ToLower(strings.TrimSpace(h))
		if strings.Contains(lower, "code") || strings.Contains(lower, "account") {
			return true
		}
	}
	return false
}

// resolveAccount prefers the catalog entry for known codes; unknown codes
// fall back to the sheet's classification and the spreadsheet's own name.
// Sheets parsed without a classification default unknown codes to the
// balance sheet.
func (l *Loader) resolveAccount(code, name string, stmtType models.StatementType) models.Account {
	if l.catalog.Has(code) {
		e := l.catalog.Lookup(code)
		return models.Account{Code: e.Code, Name: e.Name, Category: e.Category, StatementType: e.StatementType}
	}
	if name == "" {
		name = code
	}
	if stmtType == "" {
		stmtType = models.BalanceSheet
	}
	return models.Account{Code: code, Name: name, Category: catalog.CategoryUncategorized, StatementType: stmtType}
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber handles accounting formats: thousands separators, a leading
// currency-agnostic minus, and parenthesized negatives. Blank and "-"
// cells are missing values, not zeros.
func parseNumber(raw string) (value float64, missing bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, true, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if negative {
		v = -v
	}
	return v, false, nil
}

func equalPeriods(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
