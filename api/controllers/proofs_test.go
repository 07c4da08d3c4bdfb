package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcast/storefront-backend/internal/proofs"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	"github.com/vaultcast/storefront-backend/pkg/pagination"
)

type stubProofService struct {
	input     proofs.Input
	imageBody string
	status    enums.ProofStatus
}

func (s *stubProofService) proof() *models.PaymentProof {
	name := "Jamie"
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	status := s.status
	if status == "" {
		status = enums.ProofStatusPending
	}
	return &models.PaymentProof{
		ID:           uuid.New(),
		ImageURL:     "https://storage.googleapis.com/sf/proofs/a.png",
		Amount:       decimal.RequireFromString("45"),
		CustomerName: &name,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *stubProofService) ListApproved(ctx context.Context, params pagination.Params) (*proofs.ListResult, error) {
	s.status = enums.ProofStatusApproved
	return &proofs.ListResult{Proofs: []models.PaymentProof{*s.proof()}}, nil
}

func (s *stubProofService) List(ctx context.Context, status string, params pagination.Params) (*proofs.ListResult, error) {
	return &proofs.ListResult{Proofs: []models.PaymentProof{*s.proof()}}, nil
}

func (s *stubProofService) Get(ctx context.Context, id string) (*models.PaymentProof, error) {
	return s.proof(), nil
}

func (s *stubProofService) Create(ctx context.Context, input proofs.Input) (*models.PaymentProof, error) {
	s.input = input
	if input.Image != nil {
		body, err := io.ReadAll(input.Image.Body)
		if err != nil {
			return nil, err
		}
		s.imageBody = string(body)
	}
	return s.proof(), nil
}

func (s *stubProofService) Update(ctx context.Context, id string, input proofs.Input) (*models.PaymentProof, error) {
	s.input = input
	return s.proof(), nil
}

func (s *stubProofService) Approve(ctx context.Context, id string) (*models.PaymentProof, error) {
	s.status = enums.ProofStatusApproved
	return s.proof(), nil
}

func (s *stubProofService) Reject(ctx context.Context, id string) (*models.PaymentProof, error) {
	s.status = enums.ProofStatusRejected
	return s.proof(), nil
}

func (s *stubProofService) Delete(ctx context.Context, id string) error {
	return nil
}

func multipartProof(t *testing.T, fields map[string]string, fileName, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="`+fileName+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/proofs", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAdminCreateProofMultipart(t *testing.T) {
	t.Parallel()

	svc := &stubProofService{}
	req := multipartProof(t, map[string]string{
		"amount":        "45.00",
		"customer_name": " Jamie ",
		"payment_date":  "2026-04-30",
	}, "receipt.png", "image/png", "png-bytes")

	rec := httptest.NewRecorder()
	AdminCreateProof(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.input.Image)
	assert.Equal(t, "receipt.png", svc.input.Image.FileName)
	assert.Equal(t, "image/png", svc.input.Image.ContentType)
	assert.Equal(t, int64(len("png-bytes")), svc.input.Image.Size)
	assert.Equal(t, "png-bytes", svc.imageBody)
	assert.Equal(t, "Jamie", svc.input.CustomerName)
	require.NotNil(t, svc.input.PaymentDate)
	assert.Equal(t, 30, svc.input.PaymentDate.Day())
	assert.True(t, svc.input.Amount.Equal(decimal.RequireFromString("45")))
}

func TestAdminCreateProofJSON(t *testing.T) {
	t.Parallel()

	svc := &stubProofService{}
	body := `{"amount":"20","image_url":"https://img.example/proof.jpg","payment_date":"2026-04-30T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	AdminCreateProof(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.input.Image)
	assert.Equal(t, "https://img.example/proof.jpg", svc.input.ImageURL)
	require.NotNil(t, svc.input.PaymentDate)
	assert.Equal(t, 10, svc.input.PaymentDate.Hour())
}

func TestAdminCreateProofRejectsBadFields(t *testing.T) {
	t.Parallel()

	req := multipartProof(t, map[string]string{"amount": "lots", "payment_date": "yesterday"}, "", "", "")
	rec := httptest.NewRecorder()
	AdminCreateProof(&stubProofService{}, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeAPIError(t, rec).Details.(map[string]any)
	assert.Contains(t, details, "amount")
	assert.Contains(t, details, "payment_date")
}

func TestPublicListProofsHidesCustomerName(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	PublicListProofs(&stubProofService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "customer_name")
	assert.NotContains(t, rec.Body.String(), "Jamie")
}

func TestAdminProofStatusChanges(t *testing.T) {
	t.Parallel()

	svc := &stubProofService{}
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"proofId": uuid.NewString()})

	rec := httptest.NewRecorder()
	AdminApproveProof(svc, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var approved proofs.ProofDTO
	decodeData(t, rec, &approved)
	assert.Equal(t, "approved", approved.Status)

	rec = httptest.NewRecorder()
	AdminRejectProof(svc, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var rejected proofs.ProofDTO
	decodeData(t, rec, &rejected)
	assert.Equal(t, "rejected", rejected.Status)

	rec = httptest.NewRecorder()
	AdminDeleteProof(svc, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
