package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	paymentExpiryJobName = "payment-expiry"
	expiredReason        = "expired"
	defaultExpiryBatch   = 200
)

type pendingPaymentStore interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]payments.Record, error)
	UpdateStatus(ctx context.Context, id string, transition payments.Transition) (*payments.Record, error)
}

type processedRecorder interface {
	AddProcessed(job string, n int)
}

type PaymentExpiryJobParams struct {
	Logger     *logger.Logger
	Store      pendingPaymentStore
	PendingTTL time.Duration
	BatchSize  int
	Metrics    processedRecorder
	Now        func() time.Time
}

// paymentExpiryJob fails pending records the buyer abandoned before capture.
// Records that moved to a terminal state between the listing and the update
// are skipped.
type paymentExpiryJob struct {
	logg    *logger.Logger
	store   pendingPaymentStore
	ttl     time.Duration
	batch   int
	metrics processedRecorder
	now     func() time.Time
}

func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("payment store required")
	}
	if params.PendingTTL <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &paymentExpiryJob{
		logg:    params.Logger,
		store:   params.Store,
		ttl:     params.PendingTTL,
		batch:   batch,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (j *paymentExpiryJob) Name() string { return paymentExpiryJobName }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	records, err := j.store.ListPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale pending payments: %w", err)
	}

	var errs error
	expired := 0
	for _, record := range records {
		_, err := j.store.UpdateStatus(ctx, record.ID, payments.Transition{
			Status: enums.PaymentStatusFailed,
			Reason: expiredReason,
		})
		switch {
		case err == nil:
			expired++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			continue
		default:
			errs = multierr.Append(errs, fmt.Errorf("expire payment %s: %w", record.ID, err))
		}
	}

	if j.metrics != nil && expired > 0 {
		j.metrics.AddProcessed(paymentExpiryJobName, expired)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"scanned": len(records),
		"expired": expired,
		"failed":  len(multierr.Errors(errs)),
	}), "payment expiry sweep finished")
	return errs
}
