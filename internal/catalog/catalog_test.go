package catalog

import (
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

func TestLookupBuiltin(t *testing.T) {
	c := New()

	e := c.Lookup("217000001")
	if e.Category != CategoryInvestmentProperties {
		t.Errorf("Category = %s, want investment_properties", e.Category)
	}
	if e.StatementType != models.BalanceSheet {
		t.Errorf("StatementType = %s, want BS", e.StatementType)
	}

	e = c.Lookup("511100001")
	if e.Category != CategoryRevenue || !e.Recurring {
		t.Errorf("Expected recurring revenue entry, got %+v", e)
	}
}

func TestLookupUnknownIsUncategorized(t *testing.T) {
	c := New()

	e := c.Lookup("000000000")
	if e.Category != CategoryUncategorized {
		t.Errorf("Category = %s, want uncategorized", e.Category)
	}
	if e.Code != "000000000" || e.Name != "000000000" {
		t.Errorf("Unknown entry should echo the code, got %+v", e)
	}
	if c.Has("000000000") {
		t.Error("Has should be false for unknown codes")
	}
}

func TestNewWithEntriesOverrides(t *testing.T) {
	c := NewWithEntries([]Entry{
		{Code: "217000001", Name: "Renamed", Category: CategoryInvestmentProperties, StatementType: models.BalanceSheet},
		{Code: "900000001", Name: "Custom Account", Category: "custom_category", StatementType: models.IncomeStatement},
	})

	if got := c.Lookup("217000001").Name; got != "Renamed" {
		t.Errorf("Override not applied, name = %s", got)
	}
	if !c.Has("900000001") {
		t.Error("Extension entry missing")
	}
	if !c.HasCategory("custom_category") {
		t.Error("Extension category should join the known set")
	}
}

func TestHasCategoryClosedSet(t *testing.T) {
	c := New()

	// Rule-only categories with no default accounts are still known.
	if !c.HasCategory(CategoryOccupancyRate) {
		t.Error("occupancy_rate should be a known category")
	}
	if c.HasCategory("weather") {
		t.Error("weather should not be a known category")
	}
	if got := c.AccountsByCategory(CategoryOccupancyRate); len(got) != 0 {
		t.Errorf("occupancy_rate should map to no accounts, got %v", got)
	}
}

func TestAccountsByCategorySorted(t *testing.T) {
	c := New()

	codes := c.AccountsByCategory(CategoryInvestmentProperties)
	if len(codes) != 2 {
		t.Fatalf("Expected 2 investment property accounts, got %d", len(codes))
	}
	if codes[0] > codes[1] {
		t.Errorf("Codes not sorted: %v", codes)
	}
}

func TestIsRecurring(t *testing.T) {
	c := New()

	if !c.IsRecurring("632100001") {
		t.Error("Amortization should be recurring")
	}
	if c.IsRecurring("131100001") {
		t.Error("Trade receivable should not be recurring")
	}
	if c.IsRecurring("unknown") {
		t.Error("Unknown code should not be recurring")
	}
}
