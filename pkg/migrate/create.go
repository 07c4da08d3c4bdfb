package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const versionLayout = "20060102150405"

var newMigrationBody = strings.Join([]string{
	"-- +goose Up",
	"-- +goose StatementBegin",
	"-- {{name}}",
	"-- +goose StatementEnd",
	"",
	"-- +goose Down",
	"-- +goose StatementBegin",
	"-- rollback {{name}}",
	"-- +goose StatementEnd",
	"",
}, "\n")

// CreateSQLMigration scaffolds <dir>/<version>_<slug>.sql with empty Up and
// Down sections. The version is the current UTC timestamp, bumped past the
// newest migration already in dir so files always sort after it.
func CreateSQLMigration(dir string, name string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("migration dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migration dir %q: %w", dir, err)
	}

	version, err := nextVersion(dir, time.Now().UTC())
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, version+"_"+slug+".sql")

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", target)
		}
		return "", fmt.Errorf("open migration %q: %w", target, err)
	}
	if _, err := f.WriteString(strings.ReplaceAll(newMigrationBody, "{{name}}", slug)); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close migration %q: %w", target, err)
	}
	return target, nil
}

// migrationSlug lowercases name and collapses every run of characters
// outside [a-z0-9] into a single underscore.
func migrationSlug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func nextVersion(dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read migration dir %q: %w", dir, err)
	}
	next := now.Truncate(time.Second)
	for _, entry := range entries {
		m := sqlFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		existing, err := time.Parse(versionLayout, m[1])
		if err != nil {
			continue
		}
		if !existing.Before(next) {
			next = existing.Add(time.Second)
		}
	}
	return next.Format(versionLayout), nil
}
