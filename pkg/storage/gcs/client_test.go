package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/vaultcast/storefront-backend/pkg/config"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix   string
		filename string
		suffix   string
		start    string
	}{
		{prefix: "proofs", filename: "receipt.png", suffix: "-receipt.png", start: "proofs/"},
		{prefix: "/proofs/", filename: `C:\Users\me\My Receipt (1).jpg`, suffix: "-My-Receipt-1-.jpg", start: "proofs/"},
		{prefix: "", filename: "../../etc/passwd", suffix: "-passwd"},
		{prefix: "proofs", filename: "...", suffix: "-upload", start: "proofs/"},
	}
	for _, tt := range tests {
		got := ObjectName(tt.prefix, tt.filename)
		if !strings.HasSuffix(got, tt.suffix) {
			t.Fatalf("ObjectName(%q, %q) = %q, want suffix %q", tt.prefix, tt.filename, got, tt.suffix)
		}
		if !strings.HasPrefix(got, tt.start) {
			t.Fatalf("ObjectName(%q, %q) = %q, want prefix %q", tt.prefix, tt.filename, got, tt.start)
		}
		if strings.Contains(got, "..") {
			t.Fatalf("ObjectName kept a traversal segment: %q", got)
		}
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("https://storage.googleapis.com/", "sf-proofs", "proofs/a b.png")
	want := "https://storage.googleapis.com/sf-proofs/proofs/a%20b.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(storage.ErrObjectNotExist) {
		t.Fatal("expected ErrObjectNotExist to be not found")
	}
	if !isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})) {
		t.Fatal("expected 404 api error to be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("unexpected not found")
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCSConfig{}, nil); err == nil {
		t.Fatal("expected missing bucket error")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Bucket() != "" {
		t.Fatal("expected empty bucket")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected error from nil client")
	}
}
