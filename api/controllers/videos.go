package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	"github.com/vaultcast/storefront-backend/internal/payments"
	"github.com/vaultcast/storefront-backend/internal/videos"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

type videoRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Price       string     `json:"price" validate:"required,money"`
	Duration    string     `json:"duration" validate:"max=32"`
	UploadDate  *time.Time `json:"upload_date"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft processing published"`
	Tags        []string   `json:"tags" validate:"max=50,dive,max=64"`
	VideoFileID string     `json:"video_file_id" validate:"max=256"`
	VideoURL    string     `json:"video_url" validate:"omitempty,url"`
	FileSize    *int64     `json:"file_size" validate:"omitempty,min=0"`
	MimeType    string     `json:"mime_type" validate:"max=100"`
	ProductLink string     `json:"product_link" validate:"omitempty,url"`
}

func (v videoRequest) toInput() (videos.Input, error) {
	price, err := decimal.NewFromString(v.Price)
	if err != nil {
		return videos.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return videos.Input{
		Title:       v.Title,
		Description: v.Description,
		Price:       price,
		Duration:    v.Duration,
		UploadDate:  v.UploadDate,
		Status:      v.Status,
		Tags:        v.Tags,
		VideoFileID: v.VideoFileID,
		VideoURL:    v.VideoURL,
		FileSize:    v.FileSize,
		MimeType:    v.MimeType,
		ProductLink: v.ProductLink,
	}, nil
}

func decodeVideoRequest(r *http.Request) (videos.Input, error) {
	var body videoRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		return videos.Input{}, err
	}
	return body.toInput()
}

// PublicListVideos returns the published catalog.
func PublicListVideos(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListPublished(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos.ToPublicList(result))
	}
}

func PublicGetVideo(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		video, err := svc.GetPublished(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos.ToPublicDTO(*video))
	}
}

func PublicRecordView(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		if err := svc.RecordView(r.Context(), pathParam(r, "videoId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminListVideos(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), validators.QueryString(r, "status"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos.ToAdminList(result))
	}
}

func AdminGetVideo(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		video, err := svc.Get(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos.ToAdminDTO(*video))
	}
}

func AdminCreateVideo(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		input, err := decodeVideoRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "video_id", video.ID.String()), "videos.created")
		responses.WriteSuccessStatus(w, http.StatusCreated, videos.ToAdminDTO(*video))
	}
}

func AdminUpdateVideo(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		input, err := decodeVideoRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := svc.Update(r.Context(), pathParam(r, "videoId"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos.ToAdminDTO(*video))
	}
}

func AdminDeleteVideo(svc videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("video service"))
			return
		}
		id := pathParam(r, "videoId")
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "video_id", id), "videos.deleted")
		responses.WriteNoContent(w)
	}
}

type paymentLister interface {
	ListByProduct(ctx context.Context, productID string) ([]payments.Record, error)
}

// AdminVideoPayments lists every payment record for a video, newest first.
func AdminVideoPayments(store paymentLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("payment store"))
			return
		}
		records, err := store.ListByProduct(r.Context(), pathParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"payments": payments.ToDTOs(records)})
	}
}

type paymentGetter interface {
	Get(ctx context.Context, id string) (*payments.Record, error)
}

func AdminGetPayment(store paymentGetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("payment store"))
			return
		}
		record, err := store.Get(r.Context(), pathParam(r, "paymentId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.ToDTO(*record))
	}
}
