package config

import (
	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// DefaultCorrelationRules returns the built-in relationship catalog used
// when the configuration declares no rules of its own.
func DefaultCorrelationRules() []models.CorrelationRule {
	return []models.CorrelationRule{
		{
			ID:                 1,
			Name:               "Investment Properties vs Depreciation",
			PrimaryCategory:    catalog.CategoryInvestmentProperties,
			CorrelatedCategory: catalog.CategoryDepreciation,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 2,
			Name:               "Borrowings vs Interest Expense",
			PrimaryCategory:    catalog.CategoryBorrowings,
			CorrelatedCategory: catalog.CategoryInterestExpense,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 3,
			Name:               "Cash Deposits vs Interest Income",
			PrimaryCategory:    catalog.CategoryCashDeposits,
			CorrelatedCategory: catalog.CategoryInterestIncome,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 4,
			Name:               "Trade Receivables vs Revenue Timing",
			PrimaryCategory:    catalog.CategoryTradeReceivables,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipQuarterlyTiming,
			Enabled:            true,
		},
		{
			ID:                 5,
			Name:               "Unbilled Revenue vs Revenue Timing",
			PrimaryCategory:    catalog.CategoryUnbilledRevenue,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipQuarterlyTiming,
			Enabled:            true,
		},
		{
			ID:                 6,
			Name:               "Unearned Revenue vs Revenue Timing",
			PrimaryCategory:    catalog.CategoryUnearnedRevenue,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipQuarterlyTiming,
			Enabled:            true,
		},
		{
			ID:                 7,
			Name:               "Investment Properties vs VAT Deductible",
			PrimaryCategory:    catalog.CategoryInvestmentProperties,
			CorrelatedCategory: catalog.CategoryVATDeductible,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 8,
			Name:               "Occupancy Rate vs Revenue",
			PrimaryCategory:    catalog.CategoryOccupancyRate,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 9,
			Name:               "Maintenance Expense vs Operating Expense",
			PrimaryCategory:    catalog.CategoryMaintenanceExpense,
			CorrelatedCategory: catalog.CategoryOpex,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 10,
			Name:               "Asset Disposal vs Depreciation",
			PrimaryCategory:    catalog.CategoryAssetDisposal,
			CorrelatedCategory: catalog.CategoryDepreciation,
			Relationship:       models.RelationshipNegative,
			Enabled:            true,
		},
		{
			ID:                 11,
			Name:               "New Leases vs Revenue",
			PrimaryCategory:    catalog.CategoryNewLeases,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
		{
			ID:                 12,
			Name:               "Lease Termination vs Revenue",
			PrimaryCategory:    catalog.CategoryLeaseTermination,
			CorrelatedCategory: catalog.CategoryRevenue,
			Relationship:       models.RelationshipNegative,
			Enabled:            true,
		},
		{
			ID:                 13,
			Name:               "FX Volatility vs FX Gain/Loss",
			PrimaryCategory:    catalog.CategoryFXVolatility,
			CorrelatedCategory: catalog.CategoryFXGainLoss,
			Relationship:       models.RelationshipPositive,
			Enabled:            true,
		},
	}
}
