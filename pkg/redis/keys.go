package redis

import "strings"

const (
	defaultNamespace   = "sf"
	idempotencyPrefix  = "idempotency"
	rateLimitPrefix    = "rate_limit"
	deliveryPrefix     = "delivery"
	lockPrefix         = "lock"
	adminSessionPrefix = "admin_session"
)

// Every key is "<namespace>:<prefix>:<parts...>" with empty parts dropped.
func (c *Client) key(parts ...string) string {
	namespace := defaultNamespace
	if c != nil && strings.TrimSpace(c.namespace) != "" {
		namespace = strings.TrimSpace(c.namespace)
	}
	out := make([]string, 0, len(parts)+1)
	out = append(out, namespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ":")
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.key(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return c.key(rateLimitPrefix, scope)
}

// DeliveryKey holds the link released to one session for one product.
func (c *Client) DeliveryKey(sessionID, productID string) string {
	return c.key(deliveryPrefix, sessionID, productID)
}

// DeliveryIndexKey is the set of product ids released to a session.
func (c *Client) DeliveryIndexKey(sessionID string) string {
	return c.key(deliveryPrefix, "index", sessionID)
}

// AdminSessionKey marks an admin access token as live until logout.
func (c *Client) AdminSessionKey(accessID string) string {
	return c.key(adminSessionPrefix, accessID)
}

func (c *Client) LockKey(name string) string {
	return c.key(lockPrefix, name)
}
