package app

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragsync/internal/model"
)

// ReportPublisher hands a reconciliation report to the audit queue. Emission
// is best effort: a broker hiccup never fails the reconciliation itself.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report model.SyncReport) error
}

func emitReport(
	ctx context.Context,
	publisher ReportPublisher,
	logger *zap.Logger,
	kind, domain, providerType, indexID string,
	payload interface{},
	errorCount int,
) {
	if publisher == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("marshal sync report failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	report := model.SyncReport{
		ID:           uuid.NewString(),
		Domain:       domain,
		ProviderType: providerType,
		Kind:         kind,
		IndexID:      indexID,
		Report:       string(raw),
		ErrorCount:   errorCount,
	}
	if err := publisher.PublishReport(ctx, report); err != nil {
		logger.Warn("publish sync report failed", zap.String("kind", kind), zap.Error(err))
	}
}
