package payments

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:payments_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	paymentRecords := `
CREATE TABLE IF NOT EXISTS payment_records (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  product_title TEXT NOT NULL,
  buyer_session_id TEXT,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  external_order_id TEXT,
  external_payer_id TEXT,
  failure_reason TEXT,
  created_at DATETIME NOT NULL,
  completed_at DATETIME
);`
	require.NoError(t, db.Exec(paymentRecords).Error)
	return db
}

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newGormStore(t *testing.T) (Store, *steppingClock) {
	t.Helper()
	clock := &steppingClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewService(ServiceParams{Repo: NewRepository(setupPaymentsTestDB(t)), Clock: clock.Now})
	require.NoError(t, err)
	return store, clock
}

func validDraft(productID string) Draft {
	return Draft{
		ProductID:    productID,
		ProductTitle: "VIP Private Session",
		Amount:       decimal.RequireFromString("45.00"),
		Currency:     "usd",
	}
}

func TestGormStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newGormStore(t)
	productID := uuid.NewString()

	created, err := store.Create(ctx, validDraft(productID))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, created.Status)
	assert.Equal(t, enums.CurrencyUSD, created.Currency)
	assert.Nil(t, created.CompletedAt)
	assert.Nil(t, created.ExternalOrderID)

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP Private Session", loaded.ProductTitle)
	assert.True(t, loaded.Amount.Equal(decimal.RequireFromString("45")))

	completed, err := store.UpdateStatus(ctx, created.ID, Transition{
		Status:          enums.PaymentStatusCompleted,
		ExternalOrderID: "ORDER-1",
		ExternalPayerID: "PAYER-1",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.ExternalOrderID)
	assert.Equal(t, "ORDER-1", *completed.ExternalOrderID)
	require.NotNil(t, completed.ExternalPayerID)
	assert.Equal(t, "PAYER-1", *completed.ExternalPayerID)

	_, err = store.UpdateStatus(ctx, created.ID, Transition{Status: enums.PaymentStatusFailed})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	again, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, again.Status)
}

func TestGormStoreFailedIsTerminal(t *testing.T) {
	ctx := context.Background()
	store, _ := newGormStore(t)

	created, err := store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)

	failed, err := store.UpdateStatus(ctx, created.ID, Transition{Status: enums.PaymentStatusFailed, Reason: "buyer cancelled"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, failed.Status)
	assert.Nil(t, failed.CompletedAt)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "buyer cancelled", *failed.FailureReason)

	_, err = store.UpdateStatus(ctx, created.ID, Transition{
		Status:          enums.PaymentStatusCompleted,
		ExternalOrderID: "ORDER-2",
		ExternalPayerID: "PAYER-2",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestGormStoreUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newGormStore(t)

	_, err := store.Get(ctx, uuid.NewString())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = store.Get(ctx, "not-a-uuid")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = store.UpdateStatus(ctx, uuid.NewString(), Transition{Status: enums.PaymentStatusFailed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGormStoreListByProductNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newGormStore(t)
	productID := uuid.NewString()

	first, err := store.Create(ctx, validDraft(productID))
	require.NoError(t, err)
	second, err := store.Create(ctx, validDraft(productID))
	require.NoError(t, err)
	_, err = store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)

	records, err := store.ListByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestGormStoreListPendingBefore(t *testing.T) {
	ctx := context.Background()
	store, clock := newGormStore(t)

	old, err := store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)
	done, err := store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)
	_, err = store.UpdateStatus(ctx, done.ID, Transition{Status: enums.PaymentStatusFailed})
	require.NoError(t, err)

	cutoff := clock.Now()
	_, err = store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)

	records, err := store.ListPendingBefore(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, old.ID, records[0].ID)
}

func TestGormStoreConcurrentTransitionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	conn := setupPaymentsTestDB(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := NewService(ServiceParams{Repo: NewRepository(conn), Clock: func() time.Time { return fixed }})
	require.NoError(t, err)

	created, err := store.Create(ctx, validDraft(uuid.NewString()))
	require.NoError(t, err)

	const workers = 20
	type outcome struct {
		status enums.PaymentStatus
		err    error
	}
	results := make([]outcome, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transition := Transition{Status: enums.PaymentStatusFailed, Reason: "expired"}
			if i%2 == 0 {
				transition = Transition{
					Status:          enums.PaymentStatusCompleted,
					ExternalOrderID: fmt.Sprintf("ORDER-%d", i),
					ExternalPayerID: "PAYER-1",
				}
			}
			<-start
			_, err := store.UpdateStatus(ctx, created.ID, transition)
			results[i] = outcome{status: transition.Status, err: err}
		}(i)
	}
	close(start)
	wg.Wait()

	var winners []outcome
	for _, res := range results {
		if res.err == nil {
			winners = append(winners, res)
			continue
		}
		assert.True(t, pkgerrors.IsCode(res.err, pkgerrors.CodeStateConflict), "loser got %v", res.err)
	}
	require.Len(t, winners, 1)

	final, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0].status, final.Status)
	if final.Status == enums.PaymentStatusCompleted {
		require.NotNil(t, final.CompletedAt)
		assert.True(t, final.CompletedAt.Equal(fixed))
		assert.Nil(t, final.FailureReason)
	} else {
		assert.Nil(t, final.CompletedAt)
		assert.Nil(t, final.ExternalPayerID)
	}
}
