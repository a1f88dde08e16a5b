package config

import (
	"os"
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/models"
)

func validConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			VarianceThreshold:         5.0,
			CriticalThreshold:         10.0,
			CriticalSeverityThreshold: 20.0,
			MinComovementRatio:        0.3,
			RecurringAccounts: map[string]float64{
				"depreciation": 5.0,
			},
			CorrelationBands: CorrelationBands{Critical: 15.0, High: 8.0, Medium: 3.0},
		},
		CorrelationRules: DefaultCorrelationRules(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
analysis:
  variance_threshold: 5.0
  critical_threshold: 10.0
  critical_severity_threshold: 20.0
  min_comovement_ratio: 0.3
  quarterly_patterns:
    trade_receivables:
      at: quarter_end
      direction: increase
      min_change_percent: 10.0

report:
  output_path: "./out/report.xlsx"

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true
  min_severity: "high"
  top_k: 5

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Analysis.VarianceThreshold != 5.0 {
		t.Errorf("Unexpected variance threshold: %f", cfg.Analysis.VarianceThreshold)
	}

	if cfg.Analysis.CriticalSeverityThreshold != 20.0 {
		t.Errorf("Unexpected critical severity threshold: %f", cfg.Analysis.CriticalSeverityThreshold)
	}

	p, ok := cfg.Analysis.QuarterlyPatterns["trade_receivables"]
	if !ok {
		t.Fatal("Expected quarterly pattern for trade_receivables")
	}
	if p.At != "quarter_end" || p.Direction != "increase" {
		t.Errorf("Unexpected quarterly pattern: %+v", p)
	}

	// Defaults fill in what the file omits
	if cfg.Analysis.CorrelationBands.Critical != 15.0 {
		t.Errorf("Unexpected correlation band: %f", cfg.Analysis.CorrelationBands.Critical)
	}
	if len(cfg.CorrelationRules) != 13 {
		t.Errorf("Expected 13 default correlation rules, got %d", len(cfg.CorrelationRules))
	}
	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Unexpected telegram max retries: %d", cfg.Telegram.MaxRetries)
	}

	if cfg.Telegram.TopK != 5 {
		t.Errorf("Unexpected telegram top_k: %d", cfg.Telegram.TopK)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaultQuarterlyPatterns(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.WriteString("logging:\n  level: info\n"); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// The built-in timing rules cover these three categories, so they must
	// carry patterns out of the box.
	for _, category := range []string{"trade_receivables", "unbilled_revenue", "unearned_revenue"} {
		p, ok := cfg.Analysis.QuarterlyPatterns[category]
		if !ok {
			t.Errorf("Missing default quarterly pattern for %s", category)
			continue
		}
		if p.Direction != "increase" || p.MinChangePercent != 10.0 {
			t.Errorf("Unexpected default pattern for %s: %+v", category, p)
		}
	}
	if cfg.Analysis.QuarterlyPatterns["unbilled_revenue"].At != "quarter_end" {
		t.Errorf("unbilled_revenue anchor = %s, want quarter_end", cfg.Analysis.QuarterlyPatterns["unbilled_revenue"].At)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "critical threshold below variance threshold",
			mutate: func(c *Config) {
				c.Analysis.VarianceThreshold = 12.0
				c.Analysis.CriticalThreshold = 10.0
			},
			wantErr: true,
		},
		{
			name: "comovement ratio above 1",
			mutate: func(c *Config) {
				c.Analysis.MinComovementRatio = 1.5
			},
			wantErr: true,
		},
		{
			name: "negative recurring tolerance",
			mutate: func(c *Config) {
				c.Analysis.RecurringAccounts["revenue"] = -2.0
			},
			wantErr: true,
		},
		{
			name: "unordered correlation bands",
			mutate: func(c *Config) {
				c.Analysis.CorrelationBands = CorrelationBands{Critical: 3.0, High: 8.0, Medium: 15.0}
			},
			wantErr: true,
		},
		{
			name: "bad quarterly pattern anchor",
			mutate: func(c *Config) {
				c.Analysis.QuarterlyPatterns = map[string]QuarterlyPattern{
					"revenue": {At: "month_end", Direction: "increase", MinChangePercent: 10.0},
				}
			},
			wantErr: true,
		},
		{
			name: "duplicate rule id",
			mutate: func(c *Config) {
				c.CorrelationRules = append(c.CorrelationRules, c.CorrelationRules[0])
			},
			wantErr: true,
		},
		{
			name: "rule with unknown relationship",
			mutate: func(c *Config) {
				c.CorrelationRules[0].Relationship = "inverse"
			},
			wantErr: true,
		},
		{
			name: "account override without statement type",
			mutate: func(c *Config) {
				c.Accounts = append(c.Accounts, catalog.Entry{Code: "999", Name: "Custom", Category: "opex"})
			},
			wantErr: true,
		},
		{
			name: "missing telegram token when enabled",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.ChatID = "chat"
				c.Telegram.MinSeverity = "high"
				c.Telegram.TopK = 5
			},
			wantErr: true,
		},
		{
			name: "bad telegram min severity",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = "token"
				c.Telegram.ChatID = "chat"
				c.Telegram.MinSeverity = "urgent"
				c.Telegram.TopK = 5
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			mutate: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultCorrelationRulesAreValid(t *testing.T) {
	rules := DefaultCorrelationRules()
	if len(rules) != 13 {
		t.Fatalf("Expected 13 rules, got %d", len(rules))
	}
	seen := make(map[int]bool)
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			t.Errorf("Rule %d failed validation: %v", r.ID, err)
		}
		if seen[r.ID] {
			t.Errorf("Duplicate rule id %d", r.ID)
		}
		seen[r.ID] = true
		if !r.Enabled {
			t.Errorf("Rule %d should be enabled by default", r.ID)
		}
	}

	byID := make(map[int]models.CorrelationRule)
	for _, r := range rules {
		byID[r.ID] = r
	}
	if byID[10].Relationship != models.RelationshipNegative {
		t.Errorf("Rule 10 should be negative, got %s", byID[10].Relationship)
	}
	if byID[4].Relationship != models.RelationshipQuarterlyTiming {
		t.Errorf("Rule 4 should be quarterly_timing, got %s", byID[4].Relationship)
	}
}
