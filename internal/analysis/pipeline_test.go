package analysis

import (
	"errors"
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

func TestNewEngineConfigValidation(t *testing.T) {
	cat := catalog.New()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero variance threshold", func(c *Config) { c.VarianceThreshold = 0 }},
		{"critical below variance", func(c *Config) { c.VarianceThreshold = 15; c.CriticalThreshold = 10 }},
		{"ratio above 1", func(c *Config) { c.MinComovementRatio = 2 }},
		{"unordered bands", func(c *Config) { c.CorrelationBands = CorrelationBands{Critical: 1, High: 2, Medium: 3} }},
		{"bad pattern anchor", func(c *Config) {
			c.QuarterlyPatterns = map[string]QuarterlyPattern{"revenue": {At: "year_end", Direction: "increase", MinChangePercent: 5}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg, cat, nil)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestNewEngineRejectsUnknownRuleCategory(t *testing.T) {
	rules := []models.CorrelationRule{{
		ID: 99, Name: "bogus", PrimaryCategory: "weather", CorrelatedCategory: "revenue",
		Relationship: models.RelationshipPositive, Enabled: true,
	}}

	_, err := NewEngine(DefaultConfig(), catalog.New(), rules)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
}

func TestRunAlignmentError(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), catalog.New(), nil)
	if err != nil {
		t.Fatal(err)
	}

	snap := &models.Snapshot{
		Periods: []string{"2024-05", "2024-06"},
		Accounts: []models.AccountSeries{
			series("131100001", "Trade Receivable", "trade_receivables", models.BalanceSheet, []string{"2024-05", "2024-06"}, 100, 110),
			series("511100001", "Rental Revenue", "revenue", models.IncomeStatement, []string{"2024-05"}, 100),
		},
	}

	_, err = e.Run(snap)
	var alignErr *DataAlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("Expected DataAlignmentError, got %v", err)
	}
	if len(alignErr.AccountCodes) != 1 || alignErr.AccountCodes[0] != "511100001" {
		t.Errorf("Misaligned codes = %v, want [511100001]", alignErr.AccountCodes)
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	rules := []models.CorrelationRule{{
		ID: 1, Name: "Investment Properties vs Depreciation",
		PrimaryCategory: "investment_properties", CorrelatedCategory: "depreciation",
		Relationship: models.RelationshipPositive, Enabled: true,
	}}
	e, err := NewEngine(cfg, catalog.New(), rules)
	if err != nil {
		t.Fatal(err)
	}

	periods := []string{"2024-05", "2024-06"}
	snap := &models.Snapshot{
		Periods: periods,
		Accounts: []models.AccountSeries{
			series("217000001", "Investment Properties", "investment_properties", models.BalanceSheet, periods, 1000, 1253),
			series("632100001", "Amortization", "depreciation", models.IncomeStatement, periods, 100, 102),
			series("131100001", "Trade Receivable", "trade_receivables", models.BalanceSheet, periods, 500, 505),
		},
	}

	summary, err := e.Run(snap)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TotalAccounts != 3 {
		t.Errorf("TotalAccounts = %d, want 3", summary.TotalAccounts)
	}
	// Investment properties jumped 25.3% (variance anomaly) and
	// depreciation lagged behind it (correlation anomaly).
	if summary.ByType[models.AnomalyVariance] < 1 {
		t.Error("Expected at least one variance anomaly")
	}
	if summary.ByType[models.AnomalyCorrelation] != 1 {
		t.Errorf("Correlation anomalies = %d, want 1", summary.ByType[models.AnomalyCorrelation])
	}
	if summary.AccountsFlagged == 0 {
		t.Error("Expected flagged accounts")
	}

	// The ranked list is priority-descending.
	for i := 1; i < len(summary.Anomalies); i++ {
		if summary.Anomalies[i].PriorityScore > summary.Anomalies[i-1].PriorityScore {
			t.Errorf("Anomalies out of priority order at index %d", i)
		}
	}
}

func TestRunDeterministicOutput(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), catalog.New(), nil)
	if err != nil {
		t.Fatal(err)
	}

	periods := []string{"2024-05", "2024-06"}
	build := func() *models.Snapshot {
		return &models.Snapshot{
			Periods: periods,
			Accounts: []models.AccountSeries{
				series("217000001", "IP Land", "investment_properties", models.BalanceSheet, periods, 1000, 1100),
				series("131100001", "Trade Receivable", "trade_receivables", models.BalanceSheet, periods, 500, 560),
			},
		}
	}

	first, err := e.Run(build())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		next, err := e.Run(build())
		if err != nil {
			t.Fatal(err)
		}
		if len(next.Anomalies) != len(first.Anomalies) {
			t.Fatalf("Anomaly count changed between runs")
		}
		for j := range next.Anomalies {
			if next.Anomalies[j] != first.Anomalies[j] {
				t.Errorf("Run %d anomaly %d differs: %+v vs %+v", i, j, next.Anomalies[j], first.Anomalies[j])
			}
		}
	}
}
