package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/internal/delivery"
	"github.com/vaultcast/storefront-backend/internal/notify"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/internal/productmap"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	buyerCancelReason    = "cancelled by buyer"
)

// Service runs the order/capture flow for a single catalog item.
type Service interface {
	Start(ctx context.Context, input StartInput) (*StartResult, error)
	Capture(ctx context.Context, input CaptureInput) (*Receipt, error)
	Cancel(ctx context.Context, sessionID, paymentID, reason string) (*payments.Record, error)
	TakeDelivery(ctx context.Context, sessionID, productID string) (string, error)
	ClearSession(ctx context.Context, sessionID string) error
	FallbackLink(ctx context.Context, item Item, purpose Purpose) (string, error)
}

// Item is the read-only catalog snapshot a checkout runs against.
type Item struct {
	ID           string
	Title        string
	Price        decimal.Decimal
	Currency     enums.Currency
	DeliveryLink string
}

func (i Item) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(i.ID) == "" {
		fields["id"] = "required"
	}
	if strings.TrimSpace(i.Title) == "" {
		fields["title"] = "required"
	}
	if i.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if !i.Currency.IsValid() {
		fields["currency"] = "unsupported"
	}
	if strings.TrimSpace(i.DeliveryLink) == "" {
		fields["delivery_link"] = "required"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid catalog item").WithDetails(fields)
	}
	return nil
}

func (i Item) formattedPrice() string {
	if !i.Currency.IsValid() {
		return i.Price.StringFixed(2)
	}
	return i.Price.StringFixed(i.Currency.MinorUnits())
}

type StartInput struct {
	SessionID string
	Item      Item
}

type StartResult struct {
	Payment     *payments.Record
	OrderID     string
	DisplayName string
}

type CaptureInput struct {
	SessionID   string
	PaymentID   string
	OrderID     string
	SourceToken string
	Item        Item
}

// Receipt is returned once a payment is completed. When Released is true the
// link waits in the session's delivery slot and DeliveryLink is empty; it is
// only set when the slot could not be written.
type Receipt struct {
	Payment      *payments.Record
	Released     bool
	DeliveryLink string
}

type contactSource interface {
	TelegramUsername(ctx context.Context) (string, error)
}

type metricsRecorder interface {
	ObserveCheckout(stage, outcome string)
	IncNotificationFailure()
}

type ServiceParams struct {
	Store         payments.Store
	Processor     Processor
	Delivery      delivery.Store
	Notifier      notify.Notifier
	Contacts      contactSource
	Logger        *logger.Logger
	Metrics       metricsRecorder
	Mapper        *productmap.Mapper
	NotifyTimeout time.Duration
}

type service struct {
	store         payments.Store
	processor     Processor
	delivery      delivery.Store
	notifier      notify.Notifier
	contacts      contactSource
	logg          *logger.Logger
	metrics       metricsRecorder
	mapper        productmap.Mapper
	notifyTimeout time.Duration
	dispatch      func(fn func())
}

type noopMetrics struct{}

func (noopMetrics) ObserveCheckout(string, string) {}
func (noopMetrics) IncNotificationFailure()        {}

// NewService builds the orchestrator. A nil processor runs checkout with
// UnavailableProcessor; a nil notifier disables operator notifications.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("payment store required")
	}
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery store required")
	}
	if params.Contacts == nil {
		return nil, fmt.Errorf("contact source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	processor := params.Processor
	if processor == nil {
		processor = UnavailableProcessor()
	}
	var metrics metricsRecorder = noopMetrics{}
	if params.Metrics != nil {
		metrics = params.Metrics
	}
	mapper := productmap.Default()
	if params.Mapper != nil {
		mapper = *params.Mapper
	}
	timeout := params.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &service{
		store:         params.Store,
		processor:     processor,
		delivery:      params.Delivery,
		notifier:      params.Notifier,
		contacts:      params.Contacts,
		logg:          params.Logger,
		metrics:       metrics,
		mapper:        mapper,
		notifyTimeout: timeout,
		dispatch:      func(fn func()) { go fn() },
	}, nil
}

func (s *service) Start(ctx context.Context, input StartInput) (*StartResult, error) {
	if err := input.Item.validate(); err != nil {
		return nil, err
	}
	item := input.Item
	ctx = s.withSession(ctx, input.SessionID)

	record, err := s.store.Create(ctx, payments.Draft{
		ProductID:      item.ID,
		ProductTitle:   item.Title,
		Amount:         item.Price,
		Currency:       item.Currency.String(),
		BuyerSessionID: input.SessionID,
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			s.metrics.ObserveCheckout("start", "validation_error")
			return nil, err
		}
		s.metrics.ObserveCheckout("start", "persistence_error")
		return nil, s.withFallback(ctx, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create payment record"), item)
	}
	ctx = s.logg.WithPaymentID(ctx, record.ID)

	name, description := s.mapper.ProcessorLabel(item.Title, item.Price)
	handle, err := s.processor.CreateOrder(ctx, OrderRequest{
		Description:      description,
		SoftDescriptor:   name,
		Amount:           record.Amount,
		Currency:         record.Currency,
		CorrelationToken: record.ID,
		IdempotencyKey:   "order-" + record.ID,
	})
	if err == nil && (handle == nil || strings.TrimSpace(handle.OrderID) == "") {
		err = fmt.Errorf("processor returned no order id")
	}
	if err != nil {
		s.logg.Error(ctx, "checkout.create_order_failed", err)
		s.markFailed(ctx, record.ID, "", "order creation failed")
		s.metrics.ObserveCheckout("start", "processor_error")
		return nil, s.withFallback(ctx, pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "create processor order"), item)
	}

	s.metrics.ObserveCheckout("start", "ok")
	s.logg.Info(s.logg.WithField(ctx, "order_id", handle.OrderID), "checkout.order_created")
	return &StartResult{Payment: record, OrderID: handle.OrderID, DisplayName: name}, nil
}

func (s *service) Capture(ctx context.Context, input CaptureInput) (*Receipt, error) {
	if err := input.Item.validate(); err != nil {
		return nil, err
	}
	sessionID := strings.TrimSpace(input.SessionID)
	paymentID := strings.TrimSpace(input.PaymentID)
	orderID := strings.TrimSpace(input.OrderID)
	if sessionID == "" || paymentID == "" || orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session, payment and order ids are required")
	}
	sourceToken := strings.TrimSpace(input.SourceToken)
	if sourceToken == "" {
		s.metrics.ObserveCheckout("capture", "validation_error")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source is required").
			WithDetails(map[string]string{"source_id": "is required"})
	}
	item := input.Item
	ctx = s.logg.WithPaymentID(s.withSession(ctx, sessionID), paymentID)

	result, err := s.processor.CaptureOrder(ctx, CaptureRequest{
		OrderID:        orderID,
		SourceToken:    sourceToken,
		IdempotencyKey: "capture-" + paymentID,
	})
	if err == nil && result == nil {
		err = fmt.Errorf("processor returned no capture result")
	}
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		// Rejected before any charge, so the record stays pending.
		s.logg.Warn(ctx, "checkout.capture_rejected")
		s.metrics.ObserveCheckout("capture", "validation_error")
		return nil, err
	}
	if err != nil {
		s.logg.Error(ctx, "checkout.capture_failed", err)
		s.failDeclared(ctx, paymentID, item.ID, orderID)
		s.metrics.ObserveCheckout("capture", "processor_error")
		return nil, s.withFallback(ctx, pkgerrors.Wrap(pkgerrors.CodeProcessor, err, "capture processor order"), item)
	}
	if strings.TrimSpace(result.OrderID) == "" {
		result.OrderID = orderID
	}

	record, err := s.resolveCorrelation(ctx, paymentID, item.ID, result)
	if err != nil {
		outcome := "reconciliation_required"
		if !pkgerrors.IsCode(err, pkgerrors.CodeReconciliation) {
			outcome = "persistence_error"
		}
		s.logg.Error(ctx, "checkout.correlation_rejected", err)
		s.metrics.ObserveCheckout("capture", outcome)
		return nil, s.withFallback(ctx, pkgerrors.As(err), item)
	}

	if !strings.EqualFold(strings.TrimSpace(result.Status), CaptureStatusCompleted) {
		s.markFailed(ctx, record.ID, result.OrderID, "capture status "+result.Status)
		s.metrics.ObserveCheckout("capture", "processor_error")
		return nil, s.withFallback(ctx, pkgerrors.New(pkgerrors.CodeProcessor, "capture not completed").
			WithDetails(map[string]any{"status": result.Status}), item)
	}

	completed, err := s.store.UpdateStatus(ctx, record.ID, payments.Transition{
		Status:          enums.PaymentStatusCompleted,
		ExternalOrderID: result.OrderID,
		ExternalPayerID: result.PayerID,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", result.OrderID), "checkout.captured_but_not_recorded", err)
		s.metrics.ObserveCheckout("capture", "persistence_error")
		return nil, s.withFallback(ctx, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record completed payment"), item)
	}

	receipt := &Receipt{Payment: completed, Released: true}
	if err := s.delivery.Release(ctx, sessionID, item.ID, item.DeliveryLink); err != nil {
		s.logg.Error(ctx, "checkout.delivery_release_failed", err)
		receipt.Released = false
		receipt.DeliveryLink = item.DeliveryLink
	}

	s.metrics.ObserveCheckout("capture", "ok")
	s.logg.Info(ctx, "checkout.payment_completed")
	s.notifyOperator(ctx, completed)
	return receipt, nil
}

// resolveCorrelation fails closed: the processor must echo the declared
// payment id, and that record must be a pending payment for the same item.
func (s *service) resolveCorrelation(ctx context.Context, paymentID, productID string, result *CaptureResult) (*payments.Record, error) {
	token := strings.TrimSpace(result.CorrelationToken)
	details := map[string]any{"payment_id": paymentID, "order_id": result.OrderID}
	reconcile := func(reason string) error {
		details["reason"] = reason
		return pkgerrors.New(pkgerrors.CodeReconciliation, reason).WithDetails(details)
	}

	if token == "" {
		return nil, reconcile("correlation token missing")
	}
	if token != paymentID {
		return nil, reconcile("correlation token does not match payment")
	}
	record, err := s.store.Get(ctx, token)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, reconcile("correlation token unknown")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load payment record")
	}
	if record.ProductID != strings.TrimSpace(productID) {
		return nil, reconcile("payment belongs to another product")
	}
	if record.Status != enums.PaymentStatusPending {
		details["status"] = record.Status
		return nil, reconcile("payment is not pending")
	}
	return record, nil
}

// Cancel fails a pending payment on behalf of the session that started it.
// Payments owned by another session, or by no session, report not found.
func (s *service) Cancel(ctx context.Context, sessionID, paymentID, reason string) (*payments.Record, error) {
	sessionID = strings.TrimSpace(sessionID)
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = buyerCancelReason
	}
	owned, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if owned.BuyerSessionID == "" || owned.BuyerSessionID != sessionID {
		s.logg.Warn(s.withSession(s.logg.WithPaymentID(ctx, paymentID), sessionID), "checkout.cancel_not_owner")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment record not found")
	}
	record, err := s.store.UpdateStatus(ctx, paymentID, payments.Transition{
		Status: enums.PaymentStatusFailed,
		Reason: reason,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCheckout("cancel", "ok")
	s.logg.Info(s.logg.WithPaymentID(ctx, paymentID), "checkout.payment_cancelled")
	return record, nil
}

func (s *service) TakeDelivery(ctx context.Context, sessionID, productID string) (string, error) {
	link, ok, err := s.delivery.Take(ctx, sessionID, productID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "no delivery link for this session")
	}
	return link, nil
}

func (s *service) ClearSession(ctx context.Context, sessionID string) error {
	return s.delivery.Clear(ctx, sessionID)
}

func (s *service) FallbackLink(ctx context.Context, item Item, purpose Purpose) (string, error) {
	if strings.TrimSpace(item.Title) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item title is required")
	}
	username, err := s.contacts.TelegramUsername(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(username) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "manual payment contact not configured")
	}
	return TelegramLink(username, fallbackMessage(item, purpose)), nil
}

func (s *service) withSession(ctx context.Context, sessionID string) context.Context {
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		return ctx
	}
	return s.logg.WithSessionID(ctx, sessionID)
}

func (s *service) withFallback(ctx context.Context, err *pkgerrors.Error, item Item) *pkgerrors.Error {
	if err == nil {
		err = pkgerrors.New(pkgerrors.CodeInternal, "checkout failed")
	}
	link, linkErr := s.FallbackLink(ctx, item, PurposePayment)
	if linkErr != nil {
		s.logg.Warn(ctx, "checkout.fallback_unavailable")
		return err
	}
	details := map[string]any{}
	if existing, ok := err.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	details["fallback_url"] = link
	return err.WithDetails(details)
}

func (s *service) markFailed(ctx context.Context, paymentID, orderID, reason string) {
	_, err := s.store.UpdateStatus(ctx, paymentID, payments.Transition{
		Status:          enums.PaymentStatusFailed,
		ExternalOrderID: orderID,
		Reason:          reason,
	})
	if err != nil {
		s.logg.Error(ctx, "checkout.mark_failed", err)
	}
}

// failDeclared fails the client-declared payment only when it is a pending
// record for the item being bought.
func (s *service) failDeclared(ctx context.Context, paymentID, productID, orderID string) {
	record, err := s.store.Get(ctx, paymentID)
	if err != nil {
		s.logg.Warn(ctx, "checkout.declared_payment_unresolved")
		return
	}
	if record.ProductID != productID || record.Status != enums.PaymentStatusPending {
		return
	}
	s.markFailed(ctx, record.ID, orderID, "processor capture failed")
}

func (s *service) notifyOperator(ctx context.Context, record *payments.Record) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("✅ Payment confirmed!\n\n📚 Product: %s\n💰 Amount: $%s\n\nPlease send the purchased content.",
		s.mapper.GenericName(record.ProductTitle),
		record.Amount.StringFixed(record.Currency.MinorUnits()),
	)
	detached := s.logg.Detach(ctx)
	s.dispatch(func() {
		notifyCtx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(notifyCtx, message); err != nil {
			s.metrics.IncNotificationFailure()
			s.logg.Error(notifyCtx, "checkout.notify_failed", err)
		}
	})
}
