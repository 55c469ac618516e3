package processors

import (
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
)

// PipelineResult carries the trades to persist together with the report for the call.
type PipelineResult struct {
	Accepted []models.NormalizedTrade
	Report   models.ImportReport
}

// ImportPipeline runs rows through classification, extraction, normalization
// and duplicate reconciliation. It holds no state between calls.
type ImportPipeline struct {
	normalizer *TradeNormalizer
	reconciler *DuplicateReconciler
}

func NewImportPipeline() *ImportPipeline {
	return &ImportPipeline{
		normalizer: NewTradeNormalizer(),
		reconciler: NewDuplicateReconciler(),
	}
}

// Run processes a file batch. format may be models.FormatAuto.
func (p *ImportPipeline) Run(rows []models.RawRow, format models.BrokerFormat, existing models.KeySet, now time.Time) (*PipelineResult, error) {
	extractors, err := parsers.ExtractorsFor(format)
	if err != nil {
		return nil, err
	}

	var (
		candidates []*models.ParsedCandidate
		details    []models.ErrorDetail
		detected   models.BrokerFormat
	)
	for i, row := range rows {
		out := parsers.ExtractRow(row, extractors)
		switch {
		case out.Candidate != nil:
			if detected == "" {
				detected = out.Candidate.Format
			}
			candidates = append(candidates, out.Candidate)
		case out.Skipped:
			continue
		default:
			logger.L.Debug("Row rejected", "row", i+1, "reason", out.Err)
			details = append(details, NewErrorDetail(i, row, out.Err))
		}
	}

	result := p.Finish(len(rows), candidates, details, existing, models.SourceFile, now)
	if format != models.FormatAuto {
		result.Report.Format = format
	} else {
		result.Report.Format = detected
	}
	return result, nil
}

// Finish normalizes and reconciles already extracted candidates. The broker sync
// path enters here directly.
func (p *ImportPipeline) Finish(totalRows int, candidates []*models.ParsedCandidate, details []models.ErrorDetail, existing models.KeySet, source string, now time.Time) *PipelineResult {
	trades := make([]models.NormalizedTrade, 0, len(candidates))
	for _, c := range candidates {
		trades = append(trades, p.normalizer.Normalize(c, source, now))
	}
	reconciled := p.reconciler.Reconcile(trades, existing)
	return &PipelineResult{
		Accepted: reconciled.Accepted,
		Report:   BuildReport(totalRows, reconciled.Accepted, reconciled.Skipped, details),
	}
}
