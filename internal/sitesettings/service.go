package sitesettings

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/vaultcast/storefront-backend/internal/procenv"
	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const cacheKey = "site_settings"

var telegramUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// Input replaces every editable field. An empty ProcessorEnvironment is
// detected from ProcessorClientID.
type Input struct {
	TelegramUsername     string
	SiteName             string
	Description          string
	ProcessorClientID    string
	ProcessorEnvironment string
}

type ServiceParams struct {
	Repo     Repository
	Defaults models.SiteSettings
	CacheTTL time.Duration
	Clock    func() time.Time
}

// Service reads and writes the single settings row. Reads are served from
// an in-process cache that every write invalidates.
type Service struct {
	repo     Repository
	defaults models.SiteSettings
	cache    *cache.Cache
	clock    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	defaults := params.Defaults
	defaults.ID = models.SiteSettingsID
	if !defaults.ProcessorEnvironment.IsValid() {
		defaults.ProcessorEnvironment = procenv.Detect(defaults.ProcessorClientID).Environment
	}
	return &Service{
		repo:     params.Repo,
		defaults: defaults,
		cache:    cache.New(ttl, 2*ttl),
		clock:    clock,
	}, nil
}

// Get returns the stored settings, or the defaults when no row exists yet.
func (s *Service) Get(ctx context.Context) (models.SiteSettings, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(models.SiteSettings), nil
	}
	stored, err := s.repo.Find(ctx)
	switch {
	case err == nil:
		s.cache.Set(cacheKey, *stored, cache.DefaultExpiration)
		return *stored, nil
	case db.IsNotFound(err):
		s.cache.Set(cacheKey, s.defaults, cache.DefaultExpiration)
		return s.defaults, nil
	default:
		return models.SiteSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site settings")
	}
}

func (s *Service) Update(ctx context.Context, input Input) (models.SiteSettings, error) {
	settings, err := buildSettings(input)
	if err != nil {
		return models.SiteSettings{}, err
	}
	settings.UpdatedAt = s.clock().UTC()
	if err := s.repo.Save(ctx, &settings); err != nil {
		return models.SiteSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save site settings")
	}
	s.cache.Delete(cacheKey)
	return settings, nil
}

// TelegramUsername is the manual-channel contact used for fallback links.
func (s *Service) TelegramUsername(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return settings.TelegramUsername, nil
}

// InspectCredential reports what the detector infers for a processor
// credential without storing it.
func (s *Service) InspectCredential(credential string) procenv.Inspection {
	return procenv.Inspect(credential)
}

func buildSettings(input Input) (models.SiteSettings, error) {
	fields := map[string]string{}
	username := NormalizeTelegramUsername(input.TelegramUsername)
	if username != "" && !telegramUsernamePattern.MatchString(username) {
		fields["telegram_username"] = "must be 5-32 letters, digits or underscores"
	}
	siteName := strings.TrimSpace(input.SiteName)
	if len(siteName) > 100 {
		fields["site_name"] = "is too long"
	}
	description := strings.TrimSpace(input.Description)
	if len(description) > 500 {
		fields["description"] = "is too long"
	}
	clientID := strings.TrimSpace(input.ProcessorClientID)
	env := procenv.Detect(clientID).Environment
	if raw := strings.TrimSpace(input.ProcessorEnvironment); raw != "" {
		parsed, err := enums.ParseProcessorEnvironment(raw)
		if err != nil {
			fields["processor_environment"] = "is invalid"
		}
		env = parsed
	}
	if len(fields) > 0 {
		return models.SiteSettings{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid site settings").WithDetails(fields)
	}
	return models.SiteSettings{
		ID:                   models.SiteSettingsID,
		TelegramUsername:     username,
		SiteName:             siteName,
		Description:          description,
		ProcessorClientID:    clientID,
		ProcessorEnvironment: env,
	}, nil
}

// NormalizeTelegramUsername trims whitespace and a leading "@".
func NormalizeTelegramUsername(value string) string {
	return strings.TrimPrefix(strings.TrimSpace(value), "@")
}
