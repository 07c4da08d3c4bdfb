package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const (
	pingTimeout   = 5 * time.Second
	uploadTimeout = 2 * time.Minute
)

var (
	// ErrObjectNotFound is returned when the object does not exist.
	ErrObjectNotFound = errors.New("gcs object not found")

	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// Pinger is satisfied by clients that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client uploads and removes objects in a single bucket.
type Client struct {
	storage       *storage.Client
	bucket        string
	publicBaseURL string
	logg          *logger.Logger
}

func NewClient(ctx context.Context, cfg config.GCSConfig, logg *logger.Logger, opts ...option.ClientOption) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com"
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "gcs client initialized")
	}
	return &Client{storage: client, bucket: bucket, publicBaseURL: baseURL, logg: logg}, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

// Upload streams r into objectName and returns its public URL.
func (c *Client) Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if c == nil || c.storage == nil {
		return "", errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.storage.Bucket(c.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy object to gcs writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return PublicURL(c.publicBaseURL, c.bucket, objectName), nil
}

func (c *Client) Delete(ctx context.Context, objectName string) error {
	if c == nil || c.storage == nil {
		return errors.New("gcs client not initialized")
	}
	err := c.storage.Bucket(c.bucket).Object(objectName).Delete(ctx)
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("delete gcs object: %w", err)
}

// Ping checks that the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.storage == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.storage.Bucket(c.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket check failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.storage == nil {
		return nil
	}
	return c.storage.Close()
}

// ObjectName builds a unique object key under prefix that keeps a cleaned
// version of the original file name.
func ObjectName(prefix, filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "upload"
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	name := fmt.Sprintf("%s-%s", uuid.NewString(), base)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func PublicURL(baseURL, bucket, objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(bucket), strings.Join(segments, "/"))
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
