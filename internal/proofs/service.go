package proofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/logger"
	"github.com/vaultcast/storefront-backend/pkg/pagination"
)

// MaxImageBytes caps a single proof image upload.
const MaxImageBytes = 10 * 1024 * 1024

const objectPrefix = "proofs"

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

// Uploader stores proof images. The GCS client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectName string) error
}

type Service interface {
	ListApproved(ctx context.Context, params pagination.Params) (*ListResult, error)
	List(ctx context.Context, status string, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, id string) (*models.PaymentProof, error)
	Create(ctx context.Context, input Input) (*models.PaymentProof, error)
	Update(ctx context.Context, id string, input Input) (*models.PaymentProof, error)
	Approve(ctx context.Context, id string) (*models.PaymentProof, error)
	Reject(ctx context.Context, id string) (*models.PaymentProof, error)
	Delete(ctx context.Context, id string) error
}

// Image is an uploaded file. Size is the declared size in bytes.
type Image struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Input carries admin writes. Either Image or ImageURL provides the picture;
// on update both may be empty to keep the current one.
type Input struct {
	Amount       decimal.Decimal
	CustomerName string
	PaymentDate  *time.Time
	ImageURL     string
	Image        *Image
}

type ListResult struct {
	Proofs     []models.PaymentProof
	NextCursor string
}

type ServiceParams struct {
	Repo     Repository
	Uploader Uploader
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	repo     Repository
	uploader Uploader
	logg     *logger.Logger
	clock    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "proof repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, uploader: params.Uploader, logg: params.Logger, clock: clock}, nil
}

func (s *service) ListApproved(ctx context.Context, params pagination.Params) (*ListResult, error) {
	status := enums.ProofStatusApproved
	return s.list(ctx, &status, params)
}

func (s *service) List(ctx context.Context, status string, params pagination.Params) (*ListResult, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return s.list(ctx, nil, params)
	}
	parsed, err := enums.ParseProofStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return s.list(ctx, &parsed, params)
}

func (s *service) list(ctx context.Context, status *enums.ProofStatus, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, ListFilter{Status: status, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment proofs")
	}
	page, next := pagination.Trim(rows, limit, func(p models.PaymentProof) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &ListResult{Proofs: page, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.PaymentProof, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	proof, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, mapRepoError(err, "load payment proof")
	}
	return proof, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.PaymentProof, error) {
	if err := validateInput(input, true); err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	proof := &models.PaymentProof{
		ID:        uuid.New(),
		Status:    enums.ProofStatusPending,
		CreatedAt: now,
	}
	applyFields(proof, input, now)
	if err := s.attachImage(ctx, proof, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, proof); err != nil {
		s.removeObject(ctx, proof.ObjectName)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment proof")
	}
	return proof, nil
}

func (s *service) Update(ctx context.Context, id string, input Input) (*models.PaymentProof, error) {
	if err := validateInput(input, false); err != nil {
		return nil, err
	}
	proof, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := proof.ObjectName
	now := s.clock().UTC()
	applyFields(proof, input, now)
	if err := s.attachImage(ctx, proof, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, proof); err != nil {
		if proof.ObjectName != previous {
			s.removeObject(ctx, proof.ObjectName)
		}
		return nil, mapRepoError(err, "update payment proof")
	}
	if previous != nil && (proof.ObjectName == nil || *proof.ObjectName != *previous) {
		s.removeObject(ctx, previous)
	}
	return proof, nil
}

func (s *service) Approve(ctx context.Context, id string) (*models.PaymentProof, error) {
	return s.setStatus(ctx, id, enums.ProofStatusApproved)
}

func (s *service) Reject(ctx context.Context, id string) (*models.PaymentProof, error) {
	return s.setStatus(ctx, id, enums.ProofStatusRejected)
}

func (s *service) setStatus(ctx context.Context, id string, status enums.ProofStatus) (*models.PaymentProof, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	proof, err := s.repo.SetStatus(ctx, uid, status, s.clock().UTC())
	if err != nil {
		return nil, mapRepoError(err, "update payment proof status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"proof_id": proof.ID.String(), "status": status.String()}), "proofs.status_changed")
	return proof, nil
}

// Delete removes the row and then the stored image. A failed object delete
// is logged and leaves an orphaned object.
func (s *service) Delete(ctx context.Context, id string) error {
	proof, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, proof.ID); err != nil {
		return mapRepoError(err, "delete payment proof")
	}
	s.removeObject(ctx, proof.ObjectName)
	return nil
}

func (s *service) attachImage(ctx context.Context, proof *models.PaymentProof, input Input) error {
	if input.Image == nil {
		if url := strings.TrimSpace(input.ImageURL); url != "" {
			proof.ImageURL = url
			proof.ObjectName = nil
		}
		return nil
	}
	if s.uploader == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "image storage is not configured")
	}
	objectName := ObjectName(input.Image.FileName)
	contentType := normalizeContentType(input.Image.ContentType)
	body := &limitedReader{r: input.Image.Body, remaining: MaxImageBytes}
	url, err := s.uploader.Upload(ctx, objectName, contentType, body)
	if err != nil {
		if errors.Is(err, errImageTooLarge) {
			return pkgerrors.New(pkgerrors.CodeValidation, "image is too large").WithDetails(map[string]string{"image": fmt.Sprintf("must be at most %d bytes", MaxImageBytes)})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload proof image")
	}
	proof.ImageURL = url
	proof.ObjectName = &objectName
	return nil
}

func (s *service) removeObject(ctx context.Context, objectName *string) {
	if objectName == nil || s.uploader == nil {
		return
	}
	if err := s.uploader.Delete(ctx, *objectName); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"object": *objectName, "error": err.Error()}), "proofs.object_delete_failed")
	}
}

func validateInput(input Input, creating bool) error {
	fields := map[string]string{}
	if input.Amount.IsNegative() {
		fields["amount"] = "must not be negative"
	}
	if len(strings.TrimSpace(input.CustomerName)) > 200 {
		fields["customer_name"] = "is too long"
	}
	hasURL := strings.TrimSpace(input.ImageURL) != ""
	switch {
	case input.Image != nil:
		if input.Image.Body == nil {
			fields["image"] = "is empty"
		} else if _, ok := allowedImageTypes[normalizeContentType(input.Image.ContentType)]; !ok {
			fields["image"] = "must be a png, jpeg, webp or gif image"
		} else if input.Image.Size > MaxImageBytes {
			fields["image"] = fmt.Sprintf("must be at most %d bytes", MaxImageBytes)
		}
	case hasURL:
		if !strings.HasPrefix(strings.TrimSpace(input.ImageURL), "https://") {
			fields["image_url"] = "must be an https url"
		}
	case creating:
		fields["image"] = "is required"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment proof").WithDetails(fields)
	}
	return nil
}

func applyFields(proof *models.PaymentProof, input Input, now time.Time) {
	proof.Amount = input.Amount.Round(2)
	proof.CustomerName = optional(input.CustomerName)
	if input.PaymentDate != nil {
		date := input.PaymentDate.UTC()
		proof.PaymentDate = &date
	} else {
		proof.PaymentDate = nil
	}
	proof.UpdatedAt = now
}

// ObjectName builds the storage key for a proof image.
func ObjectName(fileName string) string {
	clean := sanitizeFileName(fileName)
	if clean == "" {
		clean = "proof"
	}
	return fmt.Sprintf("%s/%s/%s", objectPrefix, uuid.NewString(), clean)
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), ".-")
}

func normalizeContentType(value string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(value))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}

var errImageTooLarge = errors.New("image exceeds size limit")

// limitedReader fails once more than remaining bytes are read, so a body
// larger than its declared size cannot slip past the cap.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errImageTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errImageTooLarge
	}
	return n, err
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment proof not found")
	}
	return uid, nil
}

func mapRepoError(err error, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment proof not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
