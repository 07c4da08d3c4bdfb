package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/api/validators"
	"github.com/vaultcast/storefront-backend/internal/proofs"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	proofImageField    = "image"
	proofFormOverhead  = 1 << 20
	proofFormMemory    = 4 << 20
	paymentDateLayout  = "2006-01-02"
	maxCustomerNameLen = 120
)

type proofJSONRequest struct {
	Amount       string `json:"amount" validate:"required,money"`
	CustomerName string `json:"customer_name" validate:"max=120"`
	PaymentDate  string `json:"payment_date" validate:"max=40"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
}

// decodeProofRequest accepts either a multipart form with an optional image
// file or a JSON body that references an existing image URL. The returned
// cleanup closes the uploaded file.
func decodeProofRequest(w http.ResponseWriter, r *http.Request) (proofs.Input, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		var body proofJSONRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return proofs.Input{}, noop, err
		}
		input, err := proofFields(body.Amount, body.CustomerName, body.PaymentDate, body.ImageURL)
		return input, noop, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, proofs.MaxImageBytes+proofFormOverhead)
	if err := r.ParseMultipartForm(proofFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return proofs.Input{}, noop, pkgerrors.New(pkgerrors.CodeValidation, "image exceeds maximum size").
				WithDetails(map[string]any{"max_bytes": proofs.MaxImageBytes})
		}
		return proofs.Input{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	input, err := proofFields(
		r.FormValue("amount"),
		r.FormValue("customer_name"),
		r.FormValue("payment_date"),
		r.FormValue("image_url"),
	)
	if err != nil {
		return proofs.Input{}, noop, err
	}

	file, header, err := r.FormFile(proofImageField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return input, noop, nil
	case err != nil:
		return proofs.Input{}, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}
	input.Image = imageFromHeader(file, header)
	return input, func() { _ = file.Close() }, nil
}

func imageFromHeader(file multipart.File, header *multipart.FileHeader) *proofs.Image {
	return &proofs.Image{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

func proofFields(amount, customerName, paymentDate, imageURL string) (proofs.Input, error) {
	fields := map[string]string{}
	input := proofs.Input{
		CustomerName: strings.TrimSpace(customerName),
		ImageURL:     strings.TrimSpace(imageURL),
	}
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	switch {
	case err != nil:
		fields["amount"] = "must be a decimal amount"
	default:
		input.Amount = value
	}
	if len(input.CustomerName) > maxCustomerNameLen {
		fields["customer_name"] = "is too long"
	}
	if raw := strings.TrimSpace(paymentDate); raw != "" {
		parsed, err := parsePaymentDate(raw)
		if err != nil {
			fields["payment_date"] = "must be YYYY-MM-DD or RFC3339"
		} else {
			input.PaymentDate = &parsed
		}
	}
	if len(fields) > 0 {
		return proofs.Input{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment proof").WithDetails(fields)
	}
	return input, nil
}

func parsePaymentDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	return time.Parse(paymentDateLayout, raw)
}

// PublicListProofs returns approved proofs without customer names.
func PublicListProofs(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListApproved(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs.ToPublicList(result))
	}
}

func AdminListProofs(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
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
		responses.WriteSuccess(w, proofs.ToList(result))
	}
}

func AdminGetProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		proof, err := svc.Get(r.Context(), pathParam(r, "proofId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs.ToDTO(*proof))
	}
}

func AdminCreateProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		input, cleanup, err := decodeProofRequest(w, r)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proof, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "proof_id", proof.ID.String()), "proofs.created")
		responses.WriteSuccessStatus(w, http.StatusCreated, proofs.ToDTO(*proof))
	}
}

func AdminUpdateProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		input, cleanup, err := decodeProofRequest(w, r)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proof, err := svc.Update(r.Context(), pathParam(r, "proofId"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs.ToDTO(*proof))
	}
}

func AdminApproveProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		proof, err := svc.Approve(r.Context(), pathParam(r, "proofId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs.ToDTO(*proof))
	}
}

func AdminRejectProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		proof, err := svc.Reject(r.Context(), pathParam(r, "proofId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proofs.ToDTO(*proof))
	}
}

func AdminDeleteProof(svc proofs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("proof service"))
			return
		}
		if err := svc.Delete(r.Context(), pathParam(r, "proofId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
