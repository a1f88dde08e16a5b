package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Analysis         AnalysisConfig           `mapstructure:"analysis"`
	CorrelationRules []models.CorrelationRule `mapstructure:"correlation_rules"`
	Accounts         []catalog.Entry          `mapstructure:"accounts"`
	Ingest           IngestConfig             `mapstructure:"ingest"`
	Report           ReportConfig             `mapstructure:"report"`
	Telegram         TelegramConfig           `mapstructure:"telegram"`
	Logging          LoggingConfig            `mapstructure:"logging"`
}

// AnalysisConfig holds the detection engine thresholds.
//
// CriticalThreshold gates the IsCritical flag on individual variance
// results; CriticalSeverityThreshold gates the Critical severity band when
// anomalies are classified. They are related but deliberately independent.
type AnalysisConfig struct {
	VarianceThreshold         float64                     `mapstructure:"variance_threshold"`
	CriticalThreshold         float64                     `mapstructure:"critical_threshold"`
	CriticalSeverityThreshold float64                     `mapstructure:"critical_severity_threshold"`
	MinComovementRatio        float64                     `mapstructure:"min_comovement_ratio"`
	RecurringAccounts         map[string]float64          `mapstructure:"recurring_accounts"`
	QuarterlyPatterns         map[string]QuarterlyPattern `mapstructure:"quarterly_patterns"`
	CorrelationBands          CorrelationBands            `mapstructure:"correlation_bands"`
}

// QuarterlyPattern declares the expected seasonal move for a category.
type QuarterlyPattern struct {
	At               string  `mapstructure:"at"`        // quarter_start | quarter_end
	Direction        string  `mapstructure:"direction"` // increase | decrease
	MinChangePercent float64 `mapstructure:"min_change_percent"`
}

// CorrelationBands maps deviation scores to severity buckets. These are
// separate from the percent-change bands used for variance anomalies.
type CorrelationBands struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
}

// IngestConfig holds spreadsheet loading configuration
type IngestConfig struct {
	BalanceSheetKeywords    []string `mapstructure:"balance_sheet_keywords"`
	IncomeStatementKeywords []string `mapstructure:"income_statement_keywords"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	MinSeverity    string        `mapstructure:"min_severity"`
	TopK           int           `mapstructure:"top_k"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("LEDGERLENS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An empty rule list means "use the built-in catalog", not "no rules".
	if len(cfg.CorrelationRules) == 0 {
		cfg.CorrelationRules = DefaultCorrelationRules()
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.variance_threshold", 5.0)
	v.SetDefault("analysis.critical_threshold", 10.0)
	v.SetDefault("analysis.critical_severity_threshold", 20.0)
	v.SetDefault("analysis.min_comovement_ratio", 0.3)
	v.SetDefault("analysis.recurring_accounts", map[string]float64{
		catalog.CategoryDepreciation:    5.0,
		catalog.CategoryRevenue:         5.0,
		catalog.CategoryOpex:            5.0,
		catalog.CategoryInterestExpense: 5.0,
		catalog.CategoryInterestIncome:  5.0,
	})
	// Without these the built-in timing rules have nothing to check.
	v.SetDefault("analysis.quarterly_patterns", map[string]map[string]any{
		catalog.CategoryTradeReceivables: {"at": "quarter_start", "direction": "increase", "min_change_percent": 10.0},
		catalog.CategoryUnbilledRevenue:  {"at": "quarter_end", "direction": "increase", "min_change_percent": 10.0},
		catalog.CategoryUnearnedRevenue:  {"at": "quarter_start", "direction": "increase", "min_change_percent": 10.0},
	})
	v.SetDefault("analysis.correlation_bands.critical", 15.0)
	v.SetDefault("analysis.correlation_bands.high", 8.0)
	v.SetDefault("analysis.correlation_bands.medium", 3.0)

	v.SetDefault("ingest.balance_sheet_keywords", []string{"balance", "bs"})
	v.SetDefault("ingest.income_statement_keywords", []string{"income", "p&l", "pl", "is"})

	v.SetDefault("report.output_path", "./out/anomaly_report.xlsx")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")
	v.SetDefault("telegram.min_severity", "high")
	v.SetDefault("telegram.top_k", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Analysis.VarianceThreshold <= 0 {
		return fmt.Errorf("analysis.variance_threshold must be positive")
	}
	if c.Analysis.CriticalThreshold < c.Analysis.VarianceThreshold {
		return fmt.Errorf("analysis.critical_threshold (%.1f) must not be below analysis.variance_threshold (%.1f)",
			c.Analysis.CriticalThreshold, c.Analysis.VarianceThreshold)
	}
	if c.Analysis.CriticalSeverityThreshold <= 0 {
		return fmt.Errorf("analysis.critical_severity_threshold must be positive")
	}
	if c.Analysis.MinComovementRatio <= 0 || c.Analysis.MinComovementRatio > 1.0 {
		return fmt.Errorf("analysis.min_comovement_ratio must be in (0, 1]")
	}
	for category, tolerance := range c.Analysis.RecurringAccounts {
		if tolerance <= 0 {
			return fmt.Errorf("analysis.recurring_accounts.%s tolerance must be positive", category)
		}
	}
	for category, p := range c.Analysis.QuarterlyPatterns {
		if p.At != "quarter_start" && p.At != "quarter_end" {
			return fmt.Errorf("analysis.quarterly_patterns.%s.at must be quarter_start or quarter_end", category)
		}
		if p.Direction != "increase" && p.Direction != "decrease" {
			return fmt.Errorf("analysis.quarterly_patterns.%s.direction must be increase or decrease", category)
		}
		if p.MinChangePercent <= 0 {
			return fmt.Errorf("analysis.quarterly_patterns.%s.min_change_percent must be positive", category)
		}
	}
	b := c.Analysis.CorrelationBands
	if !(b.Critical > b.High && b.High > b.Medium && b.Medium > 0) {
		return fmt.Errorf("analysis.correlation_bands must be strictly decreasing and positive (critical > high > medium > 0)")
	}

	seen := make(map[int]bool, len(c.CorrelationRules))
	for i := range c.CorrelationRules {
		r := &c.CorrelationRules[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("correlation_rules[%d]: %w", i, err)
		}
		if seen[r.ID] {
			return fmt.Errorf("correlation_rules: duplicate rule id %d", r.ID)
		}
		seen[r.ID] = true
	}

	for i, a := range c.Accounts {
		if a.Code == "" || a.Category == "" {
			return fmt.Errorf("accounts[%d]: code and category are required", i)
		}
		if a.StatementType != models.BalanceSheet && a.StatementType != models.IncomeStatement {
			return fmt.Errorf("accounts[%d]: statement_type must be BS or IS", i)
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		switch models.Severity(c.Telegram.MinSeverity) {
		case models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow:
		default:
			return fmt.Errorf("telegram.min_severity must be one of: critical, high, medium, low")
		}
		if c.Telegram.TopK < 1 {
			return fmt.Errorf("telegram.top_k must be at least 1")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
