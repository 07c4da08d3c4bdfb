package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/vaultcast/storefront-backend/pkg/auth"
	"github.com/vaultcast/storefront-backend/pkg/auth/session"
	"github.com/vaultcast/storefront-backend/pkg/config"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type passwordVerifier interface {
	Verify(password, encoded string) (bool, error)
	Hash(password string) (string, error)
}

type sessionManager interface {
	Register(ctx context.Context, accessID, subject string, ttl time.Duration) error
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Admin          config.AdminConfig
	JWTConfig      config.JWTConfig
	Hasher         passwordVerifier
	SessionManager sessionManager
	Clock          func() time.Time
}

type service struct {
	admin     config.AdminConfig
	jwtCfg    config.JWTConfig
	hasher    passwordVerifier
	session   sessionManager
	clock     func() time.Time
	dummyHash string
}

// NewService constructs the single-operator login service. Logins are
// refused when no admin account is configured.
func NewService(params ServiceParams) (Service, error) {
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	dummy, err := params.Hasher.Hash(session.NewAccessID())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &service{
		admin:     params.Admin,
		jwtCfg:    params.JWTConfig,
		hasher:    params.Hasher,
		session:   params.SessionManager,
		clock:     clock,
		dummyHash: dummy,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !s.admin.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	encoded := s.admin.PasswordHash
	emailMatches := email == strings.ToLower(strings.TrimSpace(s.admin.Email))
	if !emailMatches {
		encoded = s.dummyHash
	}

	ok, err := s.hasher.Verify(req.Password, encoded)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin password")
	}
	if !ok || !emailMatches {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.clock().UTC()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		Subject: email,
		Role:    pkgAuth.RoleAdmin,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.session.Register(ctx, accessID, email, s.jwtCfg.TTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store admin session")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwtCfg.TTL()),
		Email:       email,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	return nil
}
