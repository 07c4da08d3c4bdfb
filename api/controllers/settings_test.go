package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcast/storefront-backend/internal/procenv"
	"github.com/vaultcast/storefront-backend/internal/sitesettings"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
)

type stubSettingsService struct {
	current models.SiteSettings
	input   sitesettings.Input
}

func (s *stubSettingsService) Get(ctx context.Context) (models.SiteSettings, error) {
	return s.current, nil
}

func (s *stubSettingsService) Update(ctx context.Context, input sitesettings.Input) (models.SiteSettings, error) {
	s.input = input
	s.current.TelegramUsername = input.TelegramUsername
	s.current.UpdatedAt = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return s.current, nil
}

func (s *stubSettingsService) InspectCredential(credential string) procenv.Inspection {
	return procenv.Inspect(credential)
}

func newStubSettings() *stubSettingsService {
	return &stubSettingsService{current: models.SiteSettings{
		SiteName:             "Storefront",
		TelegramUsername:     "seller_handle",
		ProcessorEnvironment: enums.ProcessorEnvSandbox,
	}}
}

func TestPublicSettings(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	PublicSettings(newStubSettings(), testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var dto sitesettings.PublicDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, "seller_handle", dto.TelegramUsername)
	assert.Equal(t, "sandbox", dto.ProcessorEnvironment)
	assert.NotContains(t, rec.Body.String(), "updated_at")
}

func TestAdminUpdateSettings(t *testing.T) {
	t.Parallel()

	svc := newStubSettings()
	body := `{"telegram_username":"@new_handle","site_name":"Shop","processor_environment":"live"}`
	rec := httptest.NewRecorder()
	AdminUpdateSettings(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "@new_handle", svc.input.TelegramUsername)
	assert.Equal(t, "live", svc.input.ProcessorEnvironment)
	assert.Contains(t, rec.Body.String(), "updated_at")
}

func TestAdminUpdateSettingsRequiresUsername(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	AdminUpdateSettings(newStubSettings(), testLogger()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"site_name":"Shop"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminInspectProcessorEnvironment(t *testing.T) {
	t.Parallel()

	credential := "sandbox-sq0idb-abcdefghijklmnop"
	rec := httptest.NewRecorder()
	AdminInspectProcessorEnvironment(newStubSettings(), testLogger()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?credential="+credential, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), credential)
	var inspection procenv.Inspection
	decodeData(t, rec, &inspection)
	assert.Equal(t, len(credential), inspection.Length)

	rec = httptest.NewRecorder()
	AdminInspectProcessorEnvironment(newStubSettings(), testLogger()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
