package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	"github.com/vaultcast/storefront-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": "1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body struct {
		Error types.APIError `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body.Error
}

func TestWriteErrorValidationKeepsMessageAndDetails(t *testing.T) {
	w := httptest.NewRecorder()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	err := pkgerrors.New(pkgerrors.CodeValidation, "title is required").WithDetails(map[string]string{"title": "is required"})

	WriteError(context.Background(), logg, w, err)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	apiErr := decodeError(t, w)
	if apiErr.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
	if apiErr.Message != "title is required" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["title"] != "is required" {
		t.Fatalf("unexpected details %v", apiErr.Details)
	}
}

func TestWriteErrorProcessorExposesFallback(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeProcessor, errors.New("declined"), "capture failed").
		WithDetails(map[string]string{"fallback_url": "https://t.me/seller?text=hi"})

	WriteError(context.Background(), nil, w, err)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", w.Code)
	}
	apiErr := decodeError(t, w)
	if apiErr.Message != pkgerrors.MetadataFor(pkgerrors.CodeProcessor).PublicMessage {
		t.Fatalf("expected public message, got %q", apiErr.Message)
	}
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["fallback_url"] != "https://t.me/seller?text=hi" {
		t.Fatalf("expected fallback url in details, got %v", apiErr.Details)
	}
}

func TestWriteErrorInternalHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("dsn=postgres://secret"), "boom").
		WithDetails(map[string]string{"dsn": "postgres://secret"})

	WriteError(context.Background(), nil, w, err)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	apiErr := decodeError(t, w)
	if apiErr.Details != nil {
		t.Fatalf("internal details leaked: %v", apiErr.Details)
	}
	if apiErr.Message != pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestWriteErrorWrapsPlainErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("plain"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	if got := decodeError(t, w).Code; got != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", got)
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set(types.RequestIDHeader, "req-42")

	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "video not found"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
	if got := decodeError(t, w).RequestID; got != "req-42" {
		t.Fatalf("expected request id echo, got %q", got)
	}
}
