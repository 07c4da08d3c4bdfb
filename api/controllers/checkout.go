package controllers

import (
	"context"
	"net/http"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	checkoutsvc "github.com/vaultcast/storefront-backend/internal/checkout"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

// catalogReader is the slice of the video catalog checkout needs.
type catalogReader interface {
	GetPublished(ctx context.Context, id string) (*models.Video, error)
	Purchasable(ctx context.Context, id string) (*models.Video, error)
}

func checkoutItem(video *models.Video, currency enums.Currency) checkoutsvc.Item {
	item := checkoutsvc.Item{
		ID:       video.ID.String(),
		Title:    video.Title,
		Price:    video.Price,
		Currency: currency,
	}
	if video.ProductLink != nil {
		item.DeliveryLink = *video.ProductLink
	}
	return item
}

type checkoutStartResponse struct {
	PaymentID   string `json:"payment_id"`
	OrderID     string `json:"order_id"`
	DisplayName string `json:"display_name"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// CheckoutStart creates a pending payment record and a processor order for
// a published video.
func CheckoutStart(svc checkoutsvc.Service, catalog catalogReader, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		sessionID, err := buyerSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := catalog.Purchasable(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Start(r.Context(), checkoutsvc.StartInput{
			SessionID: sessionID,
			Item:      checkoutItem(video, currency),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record := payments.ToDTO(*result.Payment)
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutStartResponse{
			PaymentID:   record.ID,
			OrderID:     result.OrderID,
			DisplayName: result.DisplayName,
			Amount:      record.Amount,
			Currency:    record.Currency,
			Status:      record.Status,
		})
	}
}

type captureRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=64"`
	OrderID   string `json:"order_id" validate:"required,max=255"`
	SourceID  string `json:"source_id" validate:"required,max=255"`
}

// captureResponse carries the link inline only when it could not be parked
// for the session; otherwise the buyer reads it once from the delivery route.
type captureResponse struct {
	Payment          payments.RecordDTO `json:"payment"`
	DeliveryReleased bool               `json:"delivery_released"`
	DeliveryLink     string             `json:"delivery_link,omitempty"`
}

// CheckoutCapture settles the processor order and releases the delivery link
// to the buyer session that ran the checkout.
func CheckoutCapture(svc checkoutsvc.Service, catalog catalogReader, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		sessionID, err := buyerSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body captureRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := catalog.Purchasable(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Capture(r.Context(), checkoutsvc.CaptureInput{
			SessionID:   sessionID,
			PaymentID:   body.PaymentID,
			OrderID:     body.OrderID,
			SourceToken: body.SourceID,
			Item:        checkoutItem(video, currency),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, captureResponse{
			Payment:          payments.ToDTO(*receipt.Payment),
			DeliveryReleased: receipt.Released,
			DeliveryLink:     receipt.DeliveryLink,
		})
	}
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// PaymentCancel fails a pending payment when the buyer abandons checkout.
// Only the session that started the payment may cancel it.
func PaymentCancel(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		sessionID, err := buyerSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		record, err := svc.Cancel(r.Context(), sessionID, pathParam(r, "paymentId"), body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.ToDTO(*record))
	}
}

// CheckoutDelivery hands out the delivery link released to this session.
// The link is consumed by the read.
func CheckoutDelivery(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		sessionID, err := buyerSessionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.TakeDelivery(r.Context(), sessionID, pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, map[string]string{"delivery_link": link})
	}
}

// CheckoutFallback builds the manual Telegram link for a published video.
func CheckoutFallback(svc checkoutsvc.Service, catalog catalogReader, currency enums.Currency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || catalog == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		purpose, err := checkoutsvc.ParsePurpose(validators.QueryString(r, "purpose"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := catalog.GetPublished(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.FallbackLink(r.Context(), checkoutItem(video, currency), purpose)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": link, "purpose": string(purpose)})
	}
}
