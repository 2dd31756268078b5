package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/storage"
)

// Multipart field names for article submissions
const (
	fieldFeaturedImage = "featured_image_file"
	fieldContentBlocks = "content_blocks"
)

// formError is a malformed submission field
type formError struct {
	field   string
	message string
}

func (e *formError) Error() string {
	return e.field + ": " + e.message
}

// uploads tracks opened multipart files so they can be closed after the
// request is handled
type uploads []io.Closer

func (u uploads) Close() {
	for _, f := range u {
		f.Close()
	}
}

// bindArticleInput reads an article submission from a multipart form or a
// JSON body. The returned uploads must be closed by the caller.
func bindArticleInput(c *gin.Context) (*models.ArticleInput, uploads, error) {
	in := &models.ArticleInput{}
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(in); err != nil {
			return nil, nil, &formError{field: "body", message: "request body must be a JSON object or multipart form"}
		}
		return in, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, &formError{field: "body", message: "invalid multipart form"}
	}

	in.Title = c.PostForm("title")
	in.Slug = c.PostForm("slug")
	in.CategoryID = c.PostForm("category_id")
	in.Status = c.PostForm("status")
	in.PublishedAt = c.PostForm("published_at")
	in.RemoveFeaturedImage = formBool(c.PostForm("remove_featured_image"))

	if raw := c.PostForm(fieldContentBlocks); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.ContentBlocks); err != nil {
			return nil, nil, &formError{field: fieldContentBlocks, message: "content blocks must be a JSON array"}
		}
	}

	var opened uploads
	if header := firstFile(form, fieldFeaturedImage); header != nil {
		upload, f, err := openUpload(header)
		if err != nil {
			return nil, nil, &formError{field: fieldFeaturedImage, message: "could not read uploaded file"}
		}
		opened = append(opened, f)
		in.FeaturedImage = upload
	}

	for i := range in.ContentBlocks {
		header := firstFile(form,
			fmt.Sprintf("%s.%d.file", fieldContentBlocks, i),
			fmt.Sprintf("%s[%d][file]", fieldContentBlocks, i),
		)
		if header == nil {
			continue
		}
		upload, f, err := openUpload(header)
		if err != nil {
			opened.Close()
			return nil, nil, &formError{field: fmt.Sprintf("%s.%d.file", fieldContentBlocks, i), message: "could not read uploaded file"}
		}
		opened = append(opened, f)
		in.ContentBlocks[i].Data.File = upload
	}

	return in, opened, nil
}

// openUpload opens a multipart file and sniffs its content type from the
// leading bytes rather than trusting the client's header.
func openUpload(header *multipart.FileHeader) (*storage.Upload, io.Closer, error) {
	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, err
	}

	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: mt.String(),
		Size:        header.Size,
		Body:        f,
	}, f, nil
}

func firstFile(form *multipart.Form, names ...string) *multipart.FileHeader {
	for _, name := range names {
		if files := form.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func formBool(raw string) bool {
	if raw == "on" {
		return true
	}
	v, _ := strconv.ParseBool(raw)
	return v
}
