package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
		}
	}

	path := filepath.Join(t.TempDir(), "statements.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Balance Sheet": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"131100001", "Trade Receivable: Tenant", 1000.0, 1100.0},
			{"217000001", "Investment Properties", 5000.0, 5000.0},
		},
		"Income Statement": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"511100001", "Rental Revenue", 200.0, 210.0},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	snap, err := loader.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-05", "2024-06"}, snap.Periods)
	assert.Len(t, snap.Accounts, 3)
	assert.Equal(t, path, snap.Source)

	byCode := map[string]models.AccountSeries{}
	for _, s := range snap.Accounts {
		byCode[s.Account.Code] = s
	}

	tr := byCode["131100001"]
	assert.Equal(t, "trade_receivables", tr.Account.Category)
	assert.Equal(t, models.BalanceSheet, tr.Account.StatementType)
	assert.Equal(t, 1000.0, tr.Values[0].Value)
	assert.Equal(t, 1100.0, tr.Values[1].Value)

	rev := byCode["511100001"]
	assert.Equal(t, models.IncomeStatement, rev.Account.StatementType)
	assert.Equal(t, "revenue", rev.Account.Category)
}

func TestLoadUnknownAccountFallsBack(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"BS": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"999999999", "Mystery Account", 10.0, 20.0},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	snap, err := loader.Load(path)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)

	acct := snap.Accounts[0].Account
	assert.Equal(t, catalog.CategoryUncategorized, acct.Category)
	assert.Equal(t, "Mystery Account", acct.Name)
	assert.Equal(t, models.BalanceSheet, acct.StatementType)
}

func TestLoadBlankCellsAreMissing(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Balance Sheet": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"131100001", "Trade Receivable", "", 1100.0},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	snap, err := loader.Load(path)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)

	values := snap.Accounts[0].Values
	assert.True(t, values[0].Missing)
	assert.False(t, values[1].Missing)
}

func TestLoadAccountingNumberFormats(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Balance Sheet": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"131100001", "Trade Receivable", "1,234.50", "(500)"},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	snap, err := loader.Load(path)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)

	values := snap.Accounts[0].Values
	assert.Equal(t, 1234.5, values[0].Value)
	assert.Equal(t, -500.0, values[1].Value)
}

func TestLoadMismatchedPeriodsFails(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Balance Sheet": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"131100001", "Trade Receivable", 1.0, 2.0},
		},
		"Income Statement": {
			{"Account Code", "Account Name", "2024-06", "2024-07"},
			{"511100001", "Rental Revenue", 1.0, 2.0},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	_, err := loader.Load(path)
	assert.Error(t, err)
}

func TestLoadFallsBackToTableShape(t *testing.T) {
	// No sheet name matches the keywords, but the header row marks an
	// account table.
	path := writeWorkbook(t, map[string][][]any{
		"Q2 Data": {
			{"Account Code", "Account Name", "2024-05", "2024-06"},
			{"511100001", "Rental Revenue", 100.0, 110.0},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	snap, err := loader.Load(path)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)
	// Known codes still resolve through the catalog.
	assert.Equal(t, models.IncomeStatement, snap.Accounts[0].Account.StatementType)
}

func TestLoadNoRecognizedSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Notes": {
			{"Item", "Comment"},
			{"disclosure", "see appendix"},
		},
	})

	loader := NewLoader(catalog.New(), nil, nil)
	_, err := loader.Load(path)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw         string
		want        float64
		wantMissing bool
		wantErr     bool
	}{
		{"100", 100, false, false},
		{"1,234.50", 1234.5, false, false},
		{"(500)", -500, false, false},
		{"-42.5", -42.5, false, false},
		{"", 0, true, false},
		{"-", 0, true, false},
		{"abc", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, missing, err := parseNumber(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.wantMissing, missing)
		})
	}
}
