// Package catalog maps account codes to their category, statement type and
// recurring flag. The category set is closed: codes the catalog does not
// recognize resolve to the explicit "uncategorized" tag instead of being
// silently dropped.
package catalog

import (
	"sort"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

// Category tags recognized by the built-in rule catalog. Configured entries
// may extend this set; anything else is Uncategorized.
const (
	CategoryInvestmentProperties = "investment_properties"
	CategoryCashDeposits         = "cash_deposits"
	CategoryTradeReceivables     = "trade_receivables"
	CategoryUnbilledRevenue      = "unbilled_revenue"
	CategoryVATDeductible        = "vat_deductible"
	CategoryLending              = "lending"
	CategoryBorrowings           = "borrowings"
	CategoryUnearnedRevenue      = "unearned_revenue"
	CategoryRevenue              = "revenue"
	CategoryInterestIncome       = "interest_income"
	CategoryInterestIncomeSHL    = "interest_income_shl"
	CategoryDepreciation         = "depreciation"
	CategoryInterestExpense      = "interest_expense"
	CategoryOpex                 = "opex"
	CategoryMaintenanceExpense   = "maintenance_expense"
	CategoryOccupancyRate        = "occupancy_rate"
	CategoryAssetDisposal        = "asset_disposal"
	CategoryNewLeases            = "new_leases"
	CategoryLeaseTermination     = "lease_termination"
	CategoryFXVolatility         = "fx_volatility"
	CategoryFXGainLoss           = "fx_gain_loss"
	CategoryUncategorized        = "uncategorized"
)

// Entry describes one account in the chart of accounts.
type Entry struct {
	Code          string               `json:"code" mapstructure:"code"`
	Name          string               `json:"name" mapstructure:"name"`
	Category      string               `json:"category" mapstructure:"category"`
	StatementType models.StatementType `json:"statement_type" mapstructure:"statement_type"`
	Recurring     bool                 `json:"recurring" mapstructure:"recurring"`
}

// Catalog is a read-only lookup built once at construction.
type Catalog struct {
	byCode          map[string]Entry
	byCategory      map[string][]string
	knownCategories map[string]bool
}

// New builds a catalog from the built-in chart of accounts.
func New() *Catalog {
	return NewWithEntries(nil)
}

// NewWithEntries builds a catalog from the built-in chart of accounts plus
// configured extensions. An extension with a known code overrides the
// built-in entry.
func NewWithEntries(extra []Entry) *Catalog {
	c := &Catalog{
		byCode:          make(map[string]Entry),
		byCategory:      make(map[string][]string),
		knownCategories: make(map[string]bool),
	}
	for _, cat := range ruleCategories() {
		c.knownCategories[cat] = true
	}
	for _, e := range builtinEntries() {
		c.byCode[e.Code] = e
	}
	for _, e := range extra {
		c.byCode[e.Code] = e
	}
	for code, e := range c.byCode {
		c.knownCategories[e.Category] = true
		c.byCategory[e.Category] = append(c.byCategory[e.Category], code)
	}
	for cat := range c.byCategory {
		sort.Strings(c.byCategory[cat])
	}
	return c
}

// Lookup resolves an account code. Unknown codes come back as an
// uncategorized entry named after the code, never an error.
func (c *Catalog) Lookup(code string) Entry {
	if e, ok := c.byCode[code]; ok {
		return e
	}
	return Entry{Code: code, Name: code, Category: CategoryUncategorized}
}

// Has reports whether the code is in the chart of accounts.
func (c *Catalog) Has(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

// HasCategory reports whether the category tag is part of the closed set.
// A known category may still map to zero accounts.
func (c *Catalog) HasCategory(category string) bool {
	return c.knownCategories[category]
}

// AccountsByCategory returns the sorted codes mapped to a category.
func (c *Catalog) AccountsByCategory(category string) []string {
	return c.byCategory[category]
}

// IsRecurring reports whether the code belongs to a recurring account.
func (c *Catalog) IsRecurring(code string) bool {
	e, ok := c.byCode[code]
	return ok && e.Recurring
}

// Size returns the number of cataloged accounts.
func (c *Catalog) Size() int {
	return len(c.byCode)
}

// ruleCategories lists every category the built-in rule catalog may
// reference, including ones with no default account mapping. Keeping them
// in the closed set lets the default rules validate while their rules skip
// at run time with a warning.
func ruleCategories() []string {
	return []string{
		CategoryInvestmentProperties,
		CategoryCashDeposits,
		CategoryTradeReceivables,
		CategoryUnbilledRevenue,
		CategoryVATDeductible,
		CategoryLending,
		CategoryBorrowings,
		CategoryUnearnedRevenue,
		CategoryRevenue,
		CategoryInterestIncome,
		CategoryInterestIncomeSHL,
		CategoryDepreciation,
		CategoryInterestExpense,
		CategoryOpex,
		CategoryMaintenanceExpense,
		CategoryOccupancyRate,
		CategoryAssetDisposal,
		CategoryNewLeases,
		CategoryLeaseTermination,
		CategoryFXVolatility,
		CategoryFXGainLoss,
		CategoryUncategorized,
	}
}

func builtinEntries() []Entry {
	return []Entry{
		// Balance sheet, assets
		{Code: "217000001", Name: "Investment Properties: Land Use Rights", Category: CategoryInvestmentProperties, StatementType: models.BalanceSheet},
		{Code: "217000006", Name: "Investment Properties: Office Building", Category: CategoryInvestmentProperties, StatementType: models.BalanceSheet},
		{Code: "112227001", Name: "ACB: Current Account USD - HCM", Category: CategoryCashDeposits, StatementType: models.BalanceSheet},
		{Code: "112227002", Name: "ACB: Current Account USD - HCM 2", Category: CategoryCashDeposits, StatementType: models.BalanceSheet},
		{Code: "131100001", Name: "Trade Receivable: Tenant", Category: CategoryTradeReceivables, StatementType: models.BalanceSheet},
		{Code: "138900003", Name: "Unbilled Revenue Receivables", Category: CategoryUnbilledRevenue, StatementType: models.BalanceSheet},
		{Code: "133100001", Name: "VAT Deductible", Category: CategoryVATDeductible, StatementType: models.BalanceSheet},
		{Code: "138820000", Name: "LT: Other Receivables: Subsidiaries/Parents - SHL", Category: CategoryLending, StatementType: models.BalanceSheet},
		{Code: "138821001", Name: "LT: Other Receivables: Subsidiaries/Parents - SHL 2", Category: CategoryLending, StatementType: models.BalanceSheet},

		// Balance sheet, liabilities
		{Code: "341160000", Name: "LT: Borrowings: Subsidiaries/Parents", Category: CategoryBorrowings, StatementType: models.BalanceSheet},
		{Code: "341160001", Name: "LT: Borrowings: Subsidiaries/Parents 2", Category: CategoryBorrowings, StatementType: models.BalanceSheet},
		{Code: "213100001", Name: "Unearned Revenue", Category: CategoryUnearnedRevenue, StatementType: models.BalanceSheet},

		// Income statement, revenue
		{Code: "511100001", Name: "Rental Revenue", Category: CategoryRevenue, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "511100002", Name: "Service Revenue", Category: CategoryRevenue, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "515100001", Name: "Financial Income: Interest", Category: CategoryInterestIncome, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "515600000", Name: "Financial Income: BCC Interest", Category: CategoryInterestIncomeSHL, StatementType: models.IncomeStatement, Recurring: true},

		// Income statement, expenses
		{Code: "632100001", Name: "Expense Amortization: Land Use Rights", Category: CategoryDepreciation, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "632100002", Name: "Expense Amortization: Building", Category: CategoryDepreciation, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "635000005", Name: "Financial Expenses: Loan Interest - Parent/Subsi", Category: CategoryInterestExpense, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "635000006", Name: "Financial Expenses: Loan Interest - Bank", Category: CategoryInterestExpense, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "622000001", Name: "Operating Expenses: Insurance", Category: CategoryOpex, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "622000002", Name: "Operating Expenses: Utilities", Category: CategoryOpex, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "622000003", Name: "Operating Expenses: R&M", Category: CategoryOpex, StatementType: models.IncomeStatement, Recurring: true},
		{Code: "641100001", Name: "FX Gain/Loss", Category: CategoryFXGainLoss, StatementType: models.IncomeStatement},
	}
}
