// Package services hosts the application services sitting between transport
// and the core pipeline. The pipeline itself is a pure function of its
// inputs; caching and identity live here so the core stays testable.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	apperrors "claimskpi/internal/errors"
	"claimskpi/internal/kpi"
	"claimskpi/pkg/contracts/domain"
)

// ReportEnvelope wraps a pipeline report with its service-level identity.
type ReportEnvelope struct {
	ID     string      `json:"id"`
	Cached bool        `json:"cached"`
	Report *kpi.Report `json:"report"`
}

// ReportService runs the pipeline and memoizes results keyed by input-batch
// content, so re-uploading the same files re-serves the computed report
// instead of recomputing it.
type ReportService struct {
	logger   *slog.Logger
	pipeline *kpi.Pipeline
	clock    func() time.Time

	mu      sync.RWMutex
	byHash  map[string]*ReportEnvelope
	byID    map[string]*ReportEnvelope
	ordered []string

	maxCached int

	buildsTotal   prometheus.Counter
	cacheHits     prometheus.Counter
	buildDuration prometheus.Histogram
}

// NewReportService creates a report service. The registry may be nil to skip
// metric registration (tests); clock may be nil to use wall time.
func NewReportService(logger *slog.Logger, policy kpi.Policy, reg prometheus.Registerer, clock func() time.Time) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	s := &ReportService{
		logger:    logger.With(slog.String("component", "report_service")),
		pipeline:  kpi.NewPipeline(logger, policy),
		clock:     clock,
		byHash:    make(map[string]*ReportEnvelope),
		byID:      make(map[string]*ReportEnvelope),
		maxCached: 16,
		buildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimskpi_report_builds_total",
			Help: "Number of KPI reports computed from scratch.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "claimskpi_report_cache_hits_total",
			Help: "Number of report requests served from the memoization cache.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimskpi_report_build_seconds",
			Help:    "Wall time spent computing a KPI report.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(s.buildsTotal, s.cacheHits, s.buildDuration)
	}
	return s
}

// Build runs the pipeline for the given inputs, serving a memoized report
// when the identical batch set was already processed with the same reporting
// date.
func (s *ReportService) Build(ctx context.Context, in kpi.Inputs) (*ReportEnvelope, error) {
	if in.Today.IsZero() {
		in.Today = s.clock()
	}
	key := inputsHash(in)

	s.mu.RLock()
	cached, ok := s.byHash[key]
	s.mu.RUnlock()
	if ok {
		s.cacheHits.Inc()
		s.logger.InfoContext(ctx, "serving memoized report",
			slog.String("report_id", cached.ID))
		return &ReportEnvelope{ID: cached.ID, Cached: true, Report: cached.Report}, nil
	}

	start := time.Now()
	report, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	s.buildsTotal.Inc()
	s.buildDuration.Observe(time.Since(start).Seconds())

	envelope := &ReportEnvelope{
		ID:     uuid.NewString(),
		Report: report,
	}

	s.mu.Lock()
	s.byHash[key] = envelope
	s.byID[envelope.ID] = envelope
	s.ordered = append(s.ordered, key)
	for len(s.ordered) > s.maxCached {
		oldest := s.ordered[0]
		s.ordered = s.ordered[1:]
		if old, ok := s.byHash[oldest]; ok {
			delete(s.byID, old.ID)
			delete(s.byHash, oldest)
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "built report",
		slog.String("report_id", envelope.ID),
		slog.Int("warnings", len(report.Warnings)),
		slog.Duration("elapsed", time.Since(start)))

	return envelope, nil
}

// Get returns a previously built report by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*ReportEnvelope, error) {
	s.mu.RLock()
	envelope, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("report " + id)
	}
	return envelope, nil
}

// inputsHash derives the memoization key from batch content and the
// reporting date. Column order matters (it is part of batch identity), so
// cells hash in order.
func inputsHash(in kpi.Inputs) string {
	h := sha256.New()
	h.Write([]byte(in.Today.Format("2006-01-02")))
	hashBatch(h, in.Claims)
	hashBatch(h, in.Transactions)
	hashBatch(h, in.Remittance)
	return hex.EncodeToString(h.Sum(nil))
}

func hashBatch(h interface{ Write(p []byte) (int, error) }, b *domain.RawBatch) {
	if b == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte{1})
	h.Write([]byte(b.Name))
	for _, head := range b.Headers {
		h.Write([]byte(head))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	for _, row := range b.Rows {
		for _, cell := range row {
			h.Write([]byte(cell))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
}

// TableNames lists the addressable tables of a report for the per-table
// endpoint, sorted for stable output.
func TableNames() []string {
	names := []string{
		string(kpi.KPIProviderVisits),
		string(kpi.KPIPayerMix),
		string(kpi.KPIARAging),
		string(kpi.KPIMonthlyTx),
		string(kpi.KPIPaymentsByPayer),
		string(kpi.KPIRemittance),
		string(kpi.KPIDenials),
	}
	sort.Strings(names)
	return names
}

// Table resolves one named table from a report. The remittance table is nil
// when no ERA upload was provided.
func Table(report *kpi.Report, name string) (interface{}, error) {
	switch kpi.KPIName(name) {
	case kpi.KPIProviderVisits:
		return report.ProviderVisits, nil
	case kpi.KPIPayerMix:
		return report.PayerMix, nil
	case kpi.KPIARAging:
		return report.ARAging, nil
	case kpi.KPIMonthlyTx:
		return report.MonthlyTransactions, nil
	case kpi.KPIPaymentsByPayer:
		return report.PaymentsByPayer, nil
	case kpi.KPIRemittance:
		if report.Remittance == nil {
			return nil, apperrors.NewNotFoundError("remittance table")
		}
		return report.Remittance, nil
	case kpi.KPIDenials:
		return report.Denials, nil
	}
	return nil, apperrors.NewNotFoundError("table " + name)
}
