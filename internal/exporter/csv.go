// Package exporter writes computed KPI tables out as CSV files and as the
// weekly Excel workbook. It consumes finished reports only; no aggregation
// happens here.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"claimskpi/internal/kpi"
	"claimskpi/pkg/contracts/domain"
)

// CSVWriter exports summary tables as CSV files under a base directory.
type CSVWriter struct {
	logger *slog.Logger
	outDir string
}

// NewCSVWriter creates a CSV writer rooted at outDir.
func NewCSVWriter(logger *slog.Logger, outDir string) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, outDir: outDir}
}

// WriteReport writes every table of the report as its own CSV file.
func (w *CSVWriter) WriteReport(ctx context.Context, report *kpi.Report) error {
	if err := w.writePivot(ctx, "provider_visits.csv", report.ProviderVisits); err != nil {
		return err
	}
	tables := map[string]*domain.SummaryTable{
		"payer_mix.csv":            report.PayerMix,
		"ar_aging.csv":             report.ARAging,
		"monthly_transactions.csv": report.MonthlyTransactions,
		"payments_by_payer.csv":    report.PaymentsByPayer,
		"denials.csv":              report.Denials,
	}
	for name, table := range tables {
		if table == nil {
			continue
		}
		if err := w.writeSummary(ctx, name, table); err != nil {
			return err
		}
	}
	if report.Remittance != nil {
		if err := w.writeRemittance(ctx, "era_payments.csv", report.Remittance); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVWriter) writeSummary(ctx context.Context, name string, t *domain.SummaryTable) error {
	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, len(row.Values)+1)
		record = append(record, row.Key)
		for _, v := range row.Values {
			record = append(record, formatMetric(v))
		}
		records = append(records, record)
	}
	return w.write(ctx, name, append([]string{t.KeyName}, t.Columns...), records)
}

func (w *CSVWriter) writePivot(ctx context.Context, name string, t *domain.PivotTable) error {
	if t == nil {
		return nil
	}
	headers := append([]string{t.KeyName}, t.Columns...)
	headers = append(headers, domain.GrandTotalLabel, "% Share")

	records := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make([]string, 0, len(row.Cells)+3)
		record = append(record, row.Key)
		for _, c := range row.Cells {
			record = append(record, strconv.Itoa(c))
		}
		record = append(record, strconv.Itoa(row.GrandTotal), formatMetric(row.Share))
		records = append(records, record)
	}
	return w.write(ctx, name, headers, records)
}

func (w *CSVWriter) writeRemittance(ctx context.Context, name string, ledger *domain.RemittanceLedger) error {
	records := make([][]string, 0, len(ledger.Entries))
	for _, e := range ledger.Entries {
		records = append(records, []string{e.Payer, e.Method, e.Date, e.CheckNumber, formatAmount(e.Amount)})
	}
	return w.write(ctx, name, []string{"PAYER", "METHOD", "DATE", "CHECK/EFT #", "AMOUNT"}, records)
}

// write creates the CSV file with a UTF-8 BOM so Excel opens it cleanly.
func (w *CSVWriter) write(ctx context.Context, name string, headers []string, records [][]string) error {
	path := filepath.Join(w.outDir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	w.logger.InfoContext(ctx, "wrote CSV table",
		slog.String("path", path),
		slog.Int("row_count", len(records)))

	return writer.Error()
}
