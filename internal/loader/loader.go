// Package loader reads uploaded report files into raw tabular batches. It
// sniffs CSV against spreadsheet formats by extension and hands the core
// pre-parsed batches; all typing and coercion happens downstream in the
// pipeline's normalizer.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "claimskpi/internal/errors"
	"claimskpi/pkg/contracts/domain"
)

// Loader parses report files into RawBatch values.
type Loader struct {
	logger *slog.Logger
}

// New creates a loader. A nil logger falls back to the default.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFile reads the file at path, sniffing the format from its extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.RawBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	return l.Load(ctx, filepath.Base(path), data)
}

// Load parses raw file bytes into a batch, using the file name's extension to
// choose between CSV and spreadsheet parsing.
func (l *Loader) Load(ctx context.Context, name string, data []byte) (*domain.RawBatch, error) {
	var (
		batch *domain.RawBatch
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		batch, err = l.loadCSV(name, data)
	case ".xlsx", ".xls", ".xlsm":
		batch, err = l.loadExcel(name, data)
	default:
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unsupported file format %q", filepath.Ext(name)), nil)
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "loaded batch",
		slog.String("file", name),
		slog.Int("columns", len(batch.Headers)),
		slog.Int("rows", len(batch.Rows)))

	return batch, nil
}

func (l *Loader) loadCSV(name string, data []byte) (*domain.RawBatch, error) {
	reader := csv.NewReader(bytes.NewReader(stripBOM(data)))
	reader.FieldsPerRecord = -1

	batch := &domain.RawBatch{Name: name}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to parse CSV %s", name), err)
		}
		if first {
			batch.Headers = record
			first = false
			continue
		}
		batch.Rows = append(batch.Rows, record)
	}
	return batch, nil
}

func (l *Loader) loadExcel(name string, data []byte) (*domain.RawBatch, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", name), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", name), nil)
	}

	// Reports export a single data sheet; take the first one that has a
	// header row.
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		batch := &domain.RawBatch{Name: name, Headers: rows[0]}
		if len(rows) > 1 {
			batch.Rows = rows[1:]
		}
		return batch, nil
	}

	return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no data", name), nil)
}

// Upload is one named in-memory file to parse.
type Upload struct {
	Name string
	Data []byte
}

// Batches holds the three parsed report uploads.
type Batches struct {
	Claims       *domain.RawBatch
	Transactions *domain.RawBatch
	Remittance   *domain.RawBatch
}

// LoadAll parses the claim-detail, transactions and optional remittance
// uploads concurrently. The core pipeline itself stays single-threaded; only
// the file parsing fans out.
func (l *Loader) LoadAll(ctx context.Context, claims, transactions Upload, remittance *Upload) (*Batches, error) {
	var out Batches
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		batch, err := l.Load(gctx, claims.Name, claims.Data)
		if err != nil {
			return fmt.Errorf("claim detail: %w", err)
		}
		out.Claims = batch
		return nil
	})
	g.Go(func() error {
		batch, err := l.Load(gctx, transactions.Name, transactions.Data)
		if err != nil {
			return fmt.Errorf("daily transactions: %w", err)
		}
		out.Transactions = batch
		return nil
	})
	if remittance != nil {
		g.Go(func() error {
			batch, err := l.Load(gctx, remittance.Name, remittance.Data)
			if err != nil {
				return fmt.Errorf("remittance: %w", err)
			}
			out.Remittance = batch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}
