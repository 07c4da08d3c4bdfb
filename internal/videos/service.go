package videos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultcast/storefront-backend/pkg/db"
	"github.com/vaultcast/storefront-backend/pkg/db/models"
	"github.com/vaultcast/storefront-backend/pkg/enums"
	pkgerrors "github.com/vaultcast/storefront-backend/pkg/errors"
	"github.com/vaultcast/storefront-backend/pkg/pagination"
)

const (
	maxTitleLen = 200
	maxTagsLen  = 1000
)

// Service is the catalog. Public reads see published videos only; the
// product link is returned to callers but must only leave the API through
// the admin surface or a completed checkout.
type Service interface {
	ListPublished(ctx context.Context, params pagination.Params) (*ListResult, error)
	GetPublished(ctx context.Context, id string) (*models.Video, error)
	RecordView(ctx context.Context, id string) error
	Purchasable(ctx context.Context, id string) (*models.Video, error)

	List(ctx context.Context, status string, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, id string) (*models.Video, error)
	Create(ctx context.Context, input Input) (*models.Video, error)
	Update(ctx context.Context, id string, input Input) (*models.Video, error)
	Delete(ctx context.Context, id string) error
}

// Input carries admin writes. Update replaces every field.
type Input struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Duration    string
	UploadDate  *time.Time
	Status      string
	Tags        []string
	VideoFileID string
	VideoURL    string
	FileSize    *int64
	MimeType    string
	ProductLink string
}

type ListResult struct {
	Videos     []models.Video
	NextCursor string
}

type ServiceParams struct {
	Repo  Repository
	Clock func() time.Time
}

type service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "video repository required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, clock: clock}, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*ListResult, error) {
	status := enums.VideoStatusPublished
	return s.list(ctx, &status, params)
}

func (s *service) GetPublished(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.Status != enums.VideoStatusPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return video, nil
}

func (s *service) RecordView(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	found, err := s.repo.IncrementViews(ctx, uid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record video view")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return nil
}

// Purchasable returns a published video that has a delivery artifact.
func (s *service) Purchasable(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.ProductLink == nil || strings.TrimSpace(*video.ProductLink) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "video is not available for purchase")
	}
	return video, nil
}

func (s *service) List(ctx context.Context, status string, params pagination.Params) (*ListResult, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return s.list(ctx, nil, params)
	}
	parsed, err := enums.ParseVideoStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return s.list(ctx, &parsed, params)
}

func (s *service) list(ctx context.Context, status *enums.VideoStatus, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, ListFilter{Status: status, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list videos")
	}

	page, next := pagination.Trim(rows, limit, func(v models.Video) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &ListResult{Videos: page, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Video, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	video, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, mapRepoError(err, "load video")
	}
	return video, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Video, error) {
	now := s.clock().UTC()
	video := &models.Video{ID: uuid.New(), CreatedAt: now}
	if err := applyInput(video, input, now); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create video")
	}
	return video, nil
}

func (s *service) Update(ctx context.Context, id string, input Input) (*models.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	if err := applyInput(video, input, now); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, video); err != nil {
		return nil, mapRepoError(err, "update video")
	}
	return video, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return mapRepoError(err, "delete video")
	}
	return nil
}

func applyInput(video *models.Video, input Input, now time.Time) error {
	fields := map[string]string{}
	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		fields["title"] = "is required"
	case len(title) > maxTitleLen:
		fields["title"] = "is too long"
	}
	if input.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	status := enums.VideoStatusDraft
	if raw := strings.TrimSpace(input.Status); raw != "" {
		parsed, err := enums.ParseVideoStatus(raw)
		if err != nil {
			fields["status"] = "is invalid"
		}
		status = parsed
	}
	tags := JoinTags(input.Tags)
	if len(tags) > maxTagsLen {
		fields["tags"] = "is too long"
	}
	if input.FileSize != nil && *input.FileSize < 0 {
		fields["file_size"] = "must not be negative"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid video").WithDetails(fields)
	}

	video.Title = title
	video.Description = strings.TrimSpace(input.Description)
	video.Price = input.Price.Round(2)
	video.Duration = strings.TrimSpace(input.Duration)
	video.Status = status
	video.Tags = tags
	video.VideoFileID = optional(input.VideoFileID)
	video.VideoURL = optional(input.VideoURL)
	video.FileSize = input.FileSize
	video.MimeType = optional(input.MimeType)
	video.ProductLink = optional(input.ProductLink)
	video.UpdatedAt = now
	switch {
	case input.UploadDate != nil:
		video.UploadDate = input.UploadDate.UTC()
	case video.UploadDate.IsZero():
		video.UploadDate = now
	}
	return nil
}

// JoinTags trims, drops empties and duplicates, and joins with commas.
func JoinTags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " "))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return strings.Join(out, ",")
}

func SplitTags(tags string) []string {
	out := []string{}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}
	return uid, nil
}

func mapRepoError(err error, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
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
