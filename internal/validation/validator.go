package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/slug"
	"github.com/news-publishing-api/internal/storage"
)

const (
	MaxTitleLength       = 255
	MaxSlugLength        = 255
	MaxCaptionLength     = 255
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)

// Mode distinguishes create submissions from updates
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Limits bounds uploaded images
type Limits struct {
	MaxImageSize      int64
	AllowedImageTypes []string
}

// DefaultLimits returns the image constraints used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MaxImageSize:      2 * 1024 * 1024,
		AllowedImageTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ValidatedArticle is an article submission that passed validation
type ValidatedArticle struct {
	Title               string
	Slug                string // normalized explicit slug, empty when not supplied
	CategoryID          string
	Status              *models.Status // nil when not supplied
	PublishedAt         *time.Time
	RemoveFeaturedImage bool
	ContentBlocks       []models.ContentBlock
	FeaturedImage       *storage.Upload
}

// ValidatedCategory is a category submission that passed validation
type ValidatedCategory struct {
	Name        string
	Slug        string // normalized explicit slug, empty when not supplied
	Description *string
}

// Validator provides validation methods
type Validator struct {
	limits Limits
}

// NewValidator creates a new validator instance
func NewValidator(limits Limits) *Validator {
	if limits.MaxImageSize <= 0 {
		limits.MaxImageSize = DefaultLimits().MaxImageSize
	}
	if len(limits.AllowedImageTypes) == 0 {
		limits.AllowedImageTypes = DefaultLimits().AllowedImageTypes
	}
	return &Validator{limits: limits}
}

// ValidateArticle validates a full article submission
func (v *Validator) ValidateArticle(in *models.ArticleInput, mode Mode) (*ValidatedArticle, FieldErrors) {
	errs := FieldErrors{}
	out := &ValidatedArticle{
		Title:               strings.TrimSpace(in.Title),
		CategoryID:          strings.TrimSpace(in.CategoryID),
		RemoveFeaturedImage: in.RemoveFeaturedImage,
		FeaturedImage:       in.FeaturedImage,
	}

	errs.Merge("", ozzo.Errors{
		"title": ozzo.Validate(out.Title,
			ozzo.Required.Error("title is required"),
			ozzo.RuneLength(0, MaxTitleLength).Error(fmt.Sprintf("title may not be greater than %d characters", MaxTitleLength)),
		),
		"category_id": ozzo.Validate(out.CategoryID,
			ozzo.Required.Error("category_id is required"),
		),
		"featured_image_file": ozzo.Validate(in.FeaturedImage, ozzo.By(v.imageRule)),
	}.Filter())

	out.Slug = v.normalizeSlug(in.Slug, errs)

	if status := strings.TrimSpace(in.Status); status != "" {
		if s, err := models.ParseStatus(status); err != nil {
			errs.Add("status", "invalid status, must be one of: draft, published, archived")
		} else {
			out.Status = &s
		}
	}

	if raw := strings.TrimSpace(in.PublishedAt); raw != "" {
		t, err := ParseTimestamp(raw)
		if err != nil {
			errs.Add("published_at", "published_at is not a valid date")
		} else {
			out.PublishedAt = &t
		}
	}

	blocks, blockErrs := v.ValidateBlocks(in.ContentBlocks, mode)
	for f, msg := range blockErrs {
		errs.Add(f, msg)
	}
	out.ContentBlocks = blocks

	if !errs.Empty() {
		return nil, errs
	}
	return out, nil
}

// ValidateBlocks checks every submitted block and converts the list into
// typed content blocks. Errors are keyed by block index so callers can show
// them next to the offending block.
func (v *Validator) ValidateBlocks(inputs []models.BlockInput, mode Mode) ([]models.ContentBlock, FieldErrors) {
	errs := FieldErrors{}
	if len(inputs) == 0 {
		errs.Add("content_blocks", "at least one content block is required")
		return nil, errs
	}

	seen := make(map[string]int, len(inputs))
	blocks := make([]models.ContentBlock, 0, len(inputs))

	for i, in := range inputs {
		prefix := "content_blocks." + strconv.Itoa(i)
		id := strings.TrimSpace(in.ID)
		blockType := strings.TrimSpace(in.Type)

		errs.Merge(prefix, ozzo.Errors{
			"id": ozzo.Validate(id, ozzo.Required.Error("id is required")),
			"type": ozzo.Validate(blockType,
				ozzo.Required.Error("type is required"),
				ozzo.In("text", "image").Error("type must be one of: text, image"),
			),
		}.Filter())

		if id != "" {
			if first, dup := seen[id]; dup {
				errs.Add(prefix+".id", fmt.Sprintf("duplicate block id (also used by block %d)", first))
			} else {
				seen[id] = i
			}
		}

		switch models.BlockType(blockType) {
		case models.BlockTypeText:
			var text string
			if in.Data.Text != nil {
				text = *in.Data.Text
			}
			errs.Merge(prefix+".data", ozzo.Errors{
				"text": ozzo.Validate(strings.TrimSpace(text), ozzo.Required.Error("text is required")),
			}.Filter())
			blocks = append(blocks, models.TextBlock(id, text))

		case models.BlockTypeImage:
			caption := strings.TrimSpace(in.Data.Caption)
			blobRef := strings.TrimSpace(in.Data.BlobRef)
			rules := []ozzo.Rule{ozzo.By(v.imageRule)}
			if mode == ModeCreate {
				rules = append([]ozzo.Rule{ozzo.NotNil.Error("an image file is required")}, rules...)
			}

			errs.Merge(prefix+".data", ozzo.Errors{
				"file": ozzo.Validate(in.Data.File, rules...),
				"caption": ozzo.Validate(caption,
					ozzo.RuneLength(0, MaxCaptionLength).Error(fmt.Sprintf("caption may not be greater than %d characters", MaxCaptionLength)),
				),
			}.Filter())

			data := models.ImageData{Caption: caption}
			if in.Data.File != nil {
				data.Upload = in.Data.File
			} else if mode == ModeUpdate {
				data.BlobRef = blobRef
			}
			blocks = append(blocks, models.ContentBlock{ID: id, Data: data})
		}
	}

	if !errs.Empty() {
		return nil, errs
	}
	return blocks, nil
}

// ValidateCategory validates a category submission
func (v *Validator) ValidateCategory(in *models.CategoryInput) (*ValidatedCategory, FieldErrors) {
	errs := FieldErrors{}
	out := &ValidatedCategory{Name: strings.TrimSpace(in.Name)}
	description := strings.TrimSpace(in.Description)

	errs.Merge("", ozzo.Errors{
		"name": ozzo.Validate(out.Name,
			ozzo.Required.Error("name is required"),
			ozzo.RuneLength(0, MaxNameLength).Error(fmt.Sprintf("name may not be greater than %d characters", MaxNameLength)),
		),
		"description": ozzo.Validate(description,
			ozzo.RuneLength(0, MaxDescriptionLength).Error(fmt.Sprintf("description may not be greater than %d characters", MaxDescriptionLength)),
		),
	}.Filter())

	out.Slug = v.normalizeSlug(in.Slug, errs)
	if description != "" {
		out.Description = &description
	}

	if !errs.Empty() {
		return nil, errs
	}
	return out, nil
}

// normalizeSlug validates an explicitly supplied slug and returns its
// normalized form; an absent slug yields "".
func (v *Validator) normalizeSlug(raw string, errs FieldErrors) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if err := ozzo.Validate(raw, ozzo.RuneLength(0, MaxSlugLength).Error(fmt.Sprintf("slug may not be greater than %d characters", MaxSlugLength))); err != nil {
		errs.Add("slug", err.Error())
		return ""
	}
	normalized := slug.Slugify(raw)
	if normalized == "" {
		errs.Add("slug", "slug must contain letters or digits")
	}
	return normalized
}

// imageRule checks an optional upload's type and size
func (v *Validator) imageRule(value interface{}) error {
	upload, _ := value.(*storage.Upload)
	if upload == nil {
		return nil
	}
	if !v.allowedType(upload.ContentType) {
		return ozzo.NewError("validation_image_type", "file must be an image of type: jpg, jpeg, png, gif, webp")
	}
	if upload.Size > v.limits.MaxImageSize {
		return ozzo.NewError("validation_image_size", fmt.Sprintf("file may not be greater than %d kilobytes", v.limits.MaxImageSize/1024))
	}
	return nil
}

func (v *Validator) allowedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range v.limits.AllowedImageTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// ParseTimestamp accepts RFC 3339 timestamps, datetime-local values and
// plain dates.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
