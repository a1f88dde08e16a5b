package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/internal/analysis"
	"github.com/ledgerlens/ledgerlens/internal/batch"
	"github.com/ledgerlens/ledgerlens/internal/catalog"
	"github.com/ledgerlens/ledgerlens/internal/config"
	"github.com/ledgerlens/ledgerlens/internal/ingest"
	"github.com/ledgerlens/ledgerlens/internal/logger"
	"github.com/ledgerlens/ledgerlens/internal/models"
	"github.com/ledgerlens/ledgerlens/internal/notify"
	"github.com/ledgerlens/ledgerlens/internal/report"
)

var (
	configPath string
	inputPath  string
	outputPath string

	batchDir        string
	batchPattern    string
	batchOutputDir  string
	batchWorkers    int
	continueOnError bool
)

func main() {
	root := &cobra.Command{
		Use:           "ledgerlens",
		Short:         "Financial statement anomaly detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")

	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a statement workbook and write the anomaly report",
		RunE:  runAnalyze,
	}
	analyze.Flags().StringVarP(&inputPath, "input", "i", "", "Statement workbook to analyze (required)")
	analyze.Flags().StringVarP(&outputPath, "output", "o", "", "Report path (defaults to report.output_path)")
	_ = analyze.MarkFlagRequired("input")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every workbook in a directory and write a consolidated summary",
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "Directory of statement workbooks (required)")
	batchCmd.Flags().StringVar(&batchPattern, "pattern", "*.xlsx", "Glob pattern for workbook discovery")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "Directory for per-file reports (defaults to <dir>/batch_output)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "Number of files processed in parallel")
	batchCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "Keep processing remaining files after a failure")
	_ = batchCmd.MarkFlagRequired("dir")

	root.AddCommand(analyze, batchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	runID := uuid.New().String()
	log.Info().Str("run_id", runID).Str("config", configPath).Msg("configuration loaded")

	cat := catalog.NewWithEntries(cfg.Accounts)

	loader := ingest.NewLoader(cat, cfg.Ingest.BalanceSheetKeywords, cfg.Ingest.IncomeStatementKeywords)
	snap, err := loader.Load(inputPath)
	if err != nil {
		return fmt.Errorf("failed to load statements: %w", err)
	}

	engine, err := analysis.NewEngine(engineConfig(cfg), cat, cfg.CorrelationRules)
	if err != nil {
		return err
	}

	var tg *notify.Client
	if cfg.Telegram.Enabled {
		tg, err = notify.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
	}

	summary, variances, err := engine.RunDetailed(snap)
	if err != nil {
		if tg != nil {
			if sendErr := tg.SendError(err); sendErr != nil {
				log.Error().Err(sendErr).Msg("failed to send Telegram error notification")
			}
		}
		return err
	}

	out := outputPath
	if out == "" {
		out = cfg.Report.OutputPath
	}
	writer := report.NewWriter(runID)
	if err := writer.WriteExcel(out, summary, variances); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info().Str("run_id", runID).Str("path", out).Int("anomalies", len(summary.Anomalies)).Msg("report written")

	if err := report.RenderText(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	if tg != nil && len(summary.Anomalies) > 0 {
		minSev := models.Severity(cfg.Telegram.MinSeverity)
		if err := tg.Send(summary, minSev, cfg.Telegram.TopK); err != nil {
			log.Error().Err(err).Msg("failed to send Telegram notification")
		}
	}

	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	cat := catalog.NewWithEntries(cfg.Accounts)
	loader := ingest.NewLoader(cat, cfg.Ingest.BalanceSheetKeywords, cfg.Ingest.IncomeStatementKeywords)

	engine, err := analysis.NewEngine(engineConfig(cfg), cat, cfg.CorrelationRules)
	if err != nil {
		return err
	}

	proc, err := batch.NewProcessor(loader, engine, batch.Options{
		Pattern:         batchPattern,
		OutputDir:       batchOutputDir,
		MaxWorkers:      batchWorkers,
		ContinueOnError: continueOnError,
	})
	if err != nil {
		return err
	}

	res, runErr := proc.ProcessDirectory(batchDir)
	if res != nil && len(res.Files) > 0 {
		summaryPath := filepath.Join(res.OutputDir, "batch_summary.xlsx")
		if err := batch.WriteSummaryExcel(summaryPath, res); err != nil {
			return fmt.Errorf("failed to write batch summary: %w", err)
		}
		log.Info().Str("path", summaryPath).Msg("batch summary written")

		if err := batch.RenderText(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	return runErr
}

// engineConfig maps the file configuration onto the engine's own config so
// the analysis package stays decoupled from viper.
func engineConfig(cfg *config.Config) analysis.Config {
	patterns := make(map[string]analysis.QuarterlyPattern, len(cfg.Analysis.QuarterlyPatterns))
	for category, p := range cfg.Analysis.QuarterlyPatterns {
		patterns[category] = analysis.QuarterlyPattern{
			At:               p.At,
			Direction:        p.Direction,
			MinChangePercent: p.MinChangePercent,
		}
	}

	return analysis.Config{
		VarianceThreshold:         cfg.Analysis.VarianceThreshold,
		CriticalThreshold:         cfg.Analysis.CriticalThreshold,
		CriticalSeverityThreshold: cfg.Analysis.CriticalSeverityThreshold,
		MinComovementRatio:        cfg.Analysis.MinComovementRatio,
		RecurringTolerances:       cfg.Analysis.RecurringAccounts,
		QuarterlyPatterns:         patterns,
		CorrelationBands: analysis.CorrelationBands{
			Critical: cfg.Analysis.CorrelationBands.Critical,
			High:     cfg.Analysis.CorrelationBands.High,
			Medium:   cfg.Analysis.CorrelationBands.Medium,
		},
	}
}
