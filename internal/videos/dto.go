package videos

import (
	"time"

	"github.com/vaultcast/storefront-backend/pkg/db/models"
)

// PublicVideoDTO is the storefront view. It never carries the product link.
type PublicVideoDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Duration    string    `json:"duration"`
	UploadDate  time.Time `json:"upload_date"`
	Views       int64     `json:"views"`
	Tags        []string  `json:"tags"`
	VideoURL    *string   `json:"video_url,omitempty"`
	MimeType    *string   `json:"mime_type,omitempty"`
}

type AdminVideoDTO struct {
	PublicVideoDTO
	Status      string    `json:"status"`
	VideoFileID *string   `json:"video_file_id,omitempty"`
	FileSize    *int64    `json:"file_size,omitempty"`
	ProductLink *string   `json:"product_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListDTO[T any] struct {
	Videos     []T    `json:"videos"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func ToPublicDTO(video models.Video) PublicVideoDTO {
	return PublicVideoDTO{
		ID:          video.ID.String(),
		Title:       video.Title,
		Description: video.Description,
		Price:       video.Price.StringFixed(2),
		Duration:    video.Duration,
		UploadDate:  video.UploadDate,
		Views:       video.Views,
		Tags:        SplitTags(video.Tags),
		VideoURL:    video.VideoURL,
		MimeType:    video.MimeType,
	}
}

func ToAdminDTO(video models.Video) AdminVideoDTO {
	return AdminVideoDTO{
		PublicVideoDTO: ToPublicDTO(video),
		Status:         video.Status.String(),
		VideoFileID:    video.VideoFileID,
		FileSize:       video.FileSize,
		ProductLink:    video.ProductLink,
		CreatedAt:      video.CreatedAt,
		UpdatedAt:      video.UpdatedAt,
	}
}

func ToPublicList(result *ListResult) ListDTO[PublicVideoDTO] {
	out := ListDTO[PublicVideoDTO]{Videos: make([]PublicVideoDTO, 0, len(result.Videos)), NextCursor: result.NextCursor}
	for _, video := range result.Videos {
		out.Videos = append(out.Videos, ToPublicDTO(video))
	}
	return out
}

func ToAdminList(result *ListResult) ListDTO[AdminVideoDTO] {
	out := ListDTO[AdminVideoDTO]{Videos: make([]AdminVideoDTO, 0, len(result.Videos)), NextCursor: result.NextCursor}
	for _, video := range result.Videos {
		out.Videos = append(out.Videos, ToAdminDTO(video))
	}
	return out
}
