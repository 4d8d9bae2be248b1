// reportgen builds the weekly KPI report from local files, writing the CSV
// tables and the Excel workbook without going through the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"claimskpi/internal/config"
	"claimskpi/internal/exporter"
	"claimskpi/internal/infrastructure"
	"claimskpi/internal/kpi"
	"claimskpi/internal/loader"
)

func main() {
	claimsPath := flag.String("claims", "", "path to the claim detail report (CSV or Excel)")
	txPath := flag.String("transactions", "", "path to the daily transactions report (CSV or Excel)")
	eraPath := flag.String("era", "", "optional path to the ERA remittance report")
	outDir := flag.String("out", "", "output directory (defaults to the configured export directory)")
	today := flag.String("today", "", "reporting date as YYYY-MM-DD (defaults to the current date)")
	configPath := flag.String("config", "config.yaml", "path to YAML configuration file")
	flag.Parse()

	if *claimsPath == "" || *txPath == "" {
		fmt.Fprintln(os.Stderr, "usage: reportgen -claims <file> -transactions <file> [-era <file>] [-out <dir>] [-today YYYY-MM-DD]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *outDir == "" {
		*outDir = cfg.Export.OutputDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	reportingDate := time.Now().UTC()
	if *today != "" {
		parsed, err := time.Parse("2006-01-02", *today)
		if err != nil {
			logger.Error("Invalid reporting date", slog.String("today", *today))
			os.Exit(1)
		}
		reportingDate = parsed
	}

	ctx := context.Background()
	ld := loader.New(logger)

	claims, err := ld.LoadFile(ctx, *claimsPath)
	if err != nil {
		logger.Error("Failed to load claim detail report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	transactions, err := ld.LoadFile(ctx, *txPath)
	if err != nil {
		logger.Error("Failed to load daily transactions report", slog.String("error", err.Error()))
		os.Exit(1)
	}
	inputs := kpi.Inputs{
		Claims:       claims,
		Transactions: transactions,
		Today:        reportingDate,
	}
	if *eraPath != "" {
		remittance, err := ld.LoadFile(ctx, *eraPath)
		if err != nil {
			logger.Error("Failed to load remittance report", slog.String("error", err.Error()))
			os.Exit(1)
		}
		inputs.Remittance = remittance
	}

	policy := kpi.Policy{
		ExcludedProvider:    cfg.KPI.ExcludedProvider,
		DOSCutoff:           cfg.KPI.DOSCutoffDate(),
		MinorClaimThreshold: cfg.KPI.MinorClaimThreshold,
		MinorAmountQuantile: cfg.KPI.MinorAmountQuantile,
		AgingBoundaries:     cfg.KPI.AgingBoundaries,
	}
	pipeline := kpi.NewPipeline(logger, policy)

	report, err := pipeline.Run(ctx, inputs)
	if err != nil {
		logger.Error("Report build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	csvWriter := exporter.NewCSVWriter(logger, *outDir)
	if err := csvWriter.WriteReport(ctx, report); err != nil {
		logger.Error("Failed to write CSV tables", slog.String("error", err.Error()))
		os.Exit(1)
	}

	workbookPath := filepath.Join(*outDir, cfg.Export.WorkbookName)
	workbook := exporter.NewWorkbookWriter(logger)
	if err := workbook.WriteFile(ctx, workbookPath, report); err != nil {
		logger.Error("Failed to write workbook", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Report written to %s (workbook %s)\n", *outDir, workbookPath)
}
