package square

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/vaultcast/storefront-backend/internal/procenv"
	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired = errors.New("square access token is required")
	errLocationRequired    = errors.New("square location id is required")
	errInvalidSquareEnv    = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("square logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Client wraps the Orders and Payments calls used by checkout. Every call
// is logged with sensitive fields redacted and every failure is mapped to a
// pkg/errors code.
type Client struct {
	sdk         *sqclient.Client
	environment string
	locationID  string
	baseURL     string
	httpClient  *http.Client
	logger      *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL replaces the environment base URL, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := ResolveEnvironment(cfg)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	locationID := strings.TrimSpace(cfg.LocationID)
	if locationID == "" {
		return nil, errLocationRequired
	}

	c := &Client{environment: env, locationID: locationID, baseURL: baseURLs[env], logger: logg}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []sqoption.RequestOption{sqoption.WithBaseURL(c.baseURL), sqoption.WithToken(token)}
	if c.httpClient != nil {
		sdkOpts = append(sdkOpts, sqoption.WithHTTPClient(c.httpClient))
	}
	c.sdk = sqclient.NewClient(sdkOpts...)

	logg.Info(logg.WithFields(ctx, map[string]any{"environment": env, "location_id": locationID}), "square client initialized")
	return c, nil
}

// ResolveEnvironment uses the configured environment, or infers it from
// the application id prefix when none is set.
func ResolveEnvironment(cfg config.SquareConfig) (string, error) {
	if strings.TrimSpace(cfg.Environment) != "" {
		return normalizeEnv(cfg.Environment)
	}
	if procenv.Detect(cfg.ApplicationID).Environment == enums.ProcessorEnvLive {
		return productionEnv, nil
	}
	return sandboxEnv, nil
}

func normalizeEnv(raw string) (string, error) {
	switch env := strings.ToLower(strings.TrimSpace(raw)); env {
	case "", sandboxEnv:
		return sandboxEnv, nil
	case productionEnv, string(enums.ProcessorEnvLive):
		return productionEnv, nil
	default:
		return "", errInvalidSquareEnv
	}
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func (c *Client) LocationID() string {
	if c == nil {
		return ""
	}
	return c.locationID
}

// NewIdempotencyKey returns "<prefix>-<uuid>".
func (c *Client) NewIdempotencyKey(prefix string) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "sf"
	}
	return prefix + "-" + uuid.NewString()
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*sq.Order, error) {
	if strings.TrimSpace(params.LocationID) == "" {
		params.LocationID = c.locationID
	}
	req := params.toSquareRequest(c.ensureIdempotencyKey("order.create", params.IdempotencyKey))
	return call(ctx, c, "create_order", map[string]any{
		"location_id":  params.LocationID,
		"reference_id": params.ReferenceID,
		"amount":       params.AmountCents,
	}, func() (*sq.Order, error) {
		resp, err := c.sdk.Orders.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.GetOrder() == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "square create order returned no order")
		}
		return resp.GetOrder(), nil
	}, orderFields)
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*sq.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return call(ctx, c, "get_order", map[string]any{"order_id": orderID}, func() (*sq.Order, error) {
		resp, err := c.sdk.Orders.Get(ctx, &sq.GetOrdersRequest{OrderID: orderID})
		if err != nil {
			return nil, err
		}
		if resp.GetOrder() == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "square order not found")
		}
		return resp.GetOrder(), nil
	}, orderFields)
}

func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	if strings.TrimSpace(params.LocationID) == "" {
		params.LocationID = c.locationID
	}
	req := params.toSquareRequest(c.ensureIdempotencyKey("payment.create", params.IdempotencyKey))
	return call(ctx, c, "create_payment", map[string]any{
		"location_id": params.LocationID,
		"order_id":    params.OrderID,
		"amount":      params.AmountCents,
		"source_id":   params.SourceID,
	}, func() (*sq.Payment, error) {
		resp, err := c.sdk.Payments.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.GetPayment() == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "square create payment returned no payment")
		}
		return resp.GetPayment(), nil
	}, func(p *sq.Payment) map[string]any {
		return map[string]any{"payment_id": stringValue(p.GetID()), "status": stringValue(p.GetStatus())}
	})
}

// call logs the request, runs do, and logs the mapped failure or the fields
// summary of the result.
func call[T any](ctx context.Context, c *Client, op string, fields map[string]any, do func() (*T, error), summary func(*T) map[string]any) (*T, error) {
	c.logInfo(ctx, op, "request", fields)
	result, err := do()
	if err != nil {
		mapped := mapSquareError(err, op)
		c.logFailure(ctx, op, mapped)
		return nil, mapped
	}
	c.logInfo(ctx, op, "response", summary(result))
	return result, nil
}

func orderFields(o *sq.Order) map[string]any {
	state := ""
	if o.GetState() != nil {
		state = string(*o.GetState())
	}
	return map[string]any{"order_id": stringValue(o.GetID()), "state": state}
}

func (c *Client) logInfo(ctx context.Context, op, phase string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	safe := map[string]any{"operation": op, "phase": phase}
	for k, v := range fields {
		safe[k] = redact(k, v)
	}
	c.logger.Info(c.logger.WithFields(ctx, safe), "square "+phase)
}

func (c *Client) logFailure(ctx context.Context, op string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Error(c.logger.WithFields(ctx, map[string]any{"operation": op, "phase": "error"}), "square "+op, err)
}

var sensitiveFields = []string{"card", "nonce", "token", "source", "cvv", "cvc", "secret", "email", "phone"}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
