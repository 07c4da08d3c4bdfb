package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

type fakePendingStore struct {
	pending   []payments.Record
	listErr   error
	updateErr map[string]error
	cutoff    time.Time
	limit     int
	updates   map[string]payments.Transition
}

func (f *fakePendingStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]payments.Record, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.pending, f.listErr
}

func (f *fakePendingStore) UpdateStatus(_ context.Context, id string, transition payments.Transition) (*payments.Record, error) {
	if err := f.updateErr[id]; err != nil {
		return nil, err
	}
	if f.updates == nil {
		f.updates = map[string]payments.Transition{}
	}
	f.updates[id] = transition
	return &payments.Record{ID: id, Status: transition.Status}, nil
}

type fakeProcessed struct {
	counts map[string]int
}

func (f *fakeProcessed) AddProcessed(job string, n int) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[job] += n
}

func TestPaymentExpiryFailsStalePending(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakePendingStore{
		pending: []payments.Record{{ID: "p-1"}, {ID: "p-2"}, {ID: "p-3"}},
		updateErr: map[string]error{
			"p-2": pkgerrors.New(pkgerrors.CodeStateConflict, "payment record is already terminal"),
		},
	}
	metrics := &fakeProcessed{}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:     testLogger(),
		Store:      store,
		PendingTTL: 2 * time.Hour,
		BatchSize:  50,
		Metrics:    metrics,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, "payment-expiry", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-2*time.Hour), store.cutoff)
	assert.Equal(t, 50, store.limit)
	require.Len(t, store.updates, 2)
	assert.Equal(t, enums.PaymentStatusFailed, store.updates["p-1"].Status)
	assert.Equal(t, "expired", store.updates["p-3"].Reason)
	assert.Equal(t, 2, metrics.counts["payment-expiry"])
}

func TestPaymentExpiryCombinesUpdateErrors(t *testing.T) {
	store := &fakePendingStore{
		pending: []payments.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		updateErr: map[string]error{
			"a": pkgerrors.New(pkgerrors.CodePersistence, "db down"),
			"b": pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found"),
			"c": errors.New("timeout"),
		},
	}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: testLogger(), Store: store, PendingTTL: time.Hour})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire payment a")
	assert.Contains(t, err.Error(), "expire payment c")
	assert.NotContains(t, err.Error(), "expire payment b")
	assert.Equal(t, defaultExpiryBatch, store.limit)
}

func TestPaymentExpiryListFailure(t *testing.T) {
	store := &fakePendingStore{listErr: errors.New("boom")}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: testLogger(), Store: store, PendingTTL: time.Hour})
	require.NoError(t, err)
	assert.Error(t, job.Run(context.Background()))
}

func TestNewPaymentExpiryJobValidates(t *testing.T) {
	_, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Store: &fakePendingStore{}, PendingTTL: time.Hour})
	assert.Error(t, err)
	_, err = NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: testLogger(), PendingTTL: time.Hour})
	assert.Error(t, err)
	_, err = NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: testLogger(), Store: &fakePendingStore{}})
	assert.Error(t, err)
}
