package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/storage"
	"github.com/news-publishing-api/internal/storage/memory"
)

func upload(name string) *storage.Upload {
	return &storage.Upload{Filename: name, ContentType: "image/jpeg", Size: 4, Body: strings.NewReader("data")}
}

func newUpload(id, caption string) models.ContentBlock {
	return models.ContentBlock{ID: id, Data: models.ImageData{Caption: caption, Upload: upload(id + ".jpg")}}
}

func cleared(id string) models.ContentBlock {
	return models.ContentBlock{ID: id, Data: models.ImageData{}}
}

func setup(paths ...string) (*Reconciler, *memory.Backend) {
	store := memory.New("/storage")
	for _, p := range paths {
		store.Put(p, []byte("x"))
	}
	return New(store, zerolog.Nop()), store
}

func TestReconcile_CreateStoresUploads(t *testing.T) {
	r, store := setup()

	plan, err := r.Reconcile(context.Background(), Input{
		Submitted: []models.ContentBlock{
			models.TextBlock("t1", "intro"),
			newUpload("i1", "first"),
			newUpload("i2", ""),
		},
		FeaturedUpload: upload("cover.png"),
	})
	require.NoError(t, err)

	require.Len(t, plan.Blocks, 3)
	assert.Equal(t, models.BlockTypeText, plan.Blocks[0].Type())
	for _, b := range plan.Blocks[1:] {
		img, ok := b.Image()
		require.True(t, ok)
		assert.Nil(t, img.Upload)
		assert.True(t, strings.HasPrefix(img.BlobRef, storage.DirContentImages+"/"), img.BlobRef)
	}
	img, _ := plan.Blocks[1].Image()
	assert.Equal(t, "first", img.Caption)

	assert.True(t, strings.HasPrefix(plan.FeaturedImage, storage.DirFeaturedImages+"/"))
	// the extension follows the sniffed type, not the client's filename
	assert.True(t, strings.HasSuffix(plan.FeaturedImage, ".jpg"), plan.FeaturedImage)
	assert.Empty(t, plan.Delete)
	assert.Len(t, plan.Written, 3)
	assert.Equal(t, 3, store.Len())
}

func TestReconcile_IdenticalSubmissionIsNoop(t *testing.T) {
	previous := []models.ContentBlock{
		models.TextBlock("t1", "intro"),
		models.ImageBlock("i1", "news_content_images/a.jpg", "cap"),
		models.ImageBlock("i2", "news_content_images/b.jpg", ""),
	}
	r, store := setup("news_content_images/a.jpg", "news_content_images/b.jpg", "news_featured_images/f.jpg")

	plan, err := r.Reconcile(context.Background(), Input{
		Previous:         previous,
		Submitted:        previous,
		PreviousFeatured: "news_featured_images/f.jpg",
	})
	require.NoError(t, err)

	assert.Empty(t, plan.Delete)
	assert.Empty(t, plan.Written)
	assert.Equal(t, previous, plan.Blocks)
	assert.Equal(t, "news_featured_images/f.jpg", plan.FeaturedImage)
	assert.Equal(t, 3, store.Len())
}

func TestReconcile_ReplacedUploadSupersedesOldRef(t *testing.T) {
	r, _ := setup("news_content_images/old.jpg")

	plan, err := r.Reconcile(context.Background(), Input{
		Previous:  []models.ContentBlock{models.ImageBlock("i1", "news_content_images/old.jpg", "")},
		Submitted: []models.ContentBlock{newUpload("i1", "")},
	})
	require.NoError(t, err)

	img, _ := plan.Blocks[0].Image()
	assert.NotEqual(t, "news_content_images/old.jpg", img.BlobRef)
	assert.Equal(t, []string{"news_content_images/old.jpg"}, plan.Delete)
}

func TestReconcile_ClearedImageSupersedesOldRef(t *testing.T) {
	r, _ := setup("news_content_images/old.jpg")

	plan, err := r.Reconcile(context.Background(), Input{
		Previous:  []models.ContentBlock{models.ImageBlock("i1", "news_content_images/old.jpg", "cap")},
		Submitted: []models.ContentBlock{cleared("i1")},
	})
	require.NoError(t, err)

	img, _ := plan.Blocks[0].Image()
	assert.Empty(t, img.BlobRef)
	assert.Equal(t, []string{"news_content_images/old.jpg"}, plan.Delete)
}

func TestReconcile_RemovedBlockSupersedesRef(t *testing.T) {
	r, _ := setup("blobs/abc.jpg", "blobs/keep.jpg")

	plan, err := r.Reconcile(context.Background(), Input{
		Previous: []models.ContentBlock{
			models.TextBlock("t1", "intro"),
			models.ImageBlock("i1", "blobs/abc.jpg", ""),
			models.ImageBlock("i2", "blobs/keep.jpg", ""),
		},
		Submitted: []models.ContentBlock{
			models.TextBlock("t1", "intro"),
			models.ImageBlock("i2", "blobs/keep.jpg", ""),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"blobs/abc.jpg"}, plan.Delete)
	assert.Empty(t, plan.Written)
}

func TestReconcile_ForeignRefRejectedBeforeWrites(t *testing.T) {
	r, store := setup("news_content_images/mine.jpg", "news_content_images/theirs.jpg")

	_, err := r.Reconcile(context.Background(), Input{
		Previous: []models.ContentBlock{models.ImageBlock("i1", "news_content_images/mine.jpg", "")},
		Submitted: []models.ContentBlock{
			newUpload("new", ""),
			models.ImageBlock("i1", "news_content_images/theirs.jpg", ""),
		},
	})

	var refErr *UnknownRefError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, 1, refErr.Index)
	assert.Equal(t, "content_blocks.1.data.blob_ref", refErr.Field())
	assert.Equal(t, 2, store.Len(), "nothing may be written when a ref is rejected")
}

func TestReconcile_RefMovedToAnotherBlockRejected(t *testing.T) {
	r, _ := setup("news_content_images/a.jpg")

	_, err := r.Reconcile(context.Background(), Input{
		Previous:  []models.ContentBlock{models.ImageBlock("i1", "news_content_images/a.jpg", "")},
		Submitted: []models.ContentBlock{models.ImageBlock("i2", "news_content_images/a.jpg", "")},
	})

	var refErr *UnknownRefError
	assert.ErrorAs(t, err, &refErr)
}

func TestReconcile_FeaturedImage(t *testing.T) {
	const prev = "news_featured_images/prev.jpg"

	t.Run("remove flag", func(t *testing.T) {
		r, _ := setup(prev)
		plan, err := r.Reconcile(context.Background(), Input{
			Submitted:        []models.ContentBlock{models.TextBlock("t", "x")},
			PreviousFeatured: prev,
			RemoveFeatured:   true,
			FeaturedUpload:   upload("ignored.jpg"),
		})
		require.NoError(t, err)
		assert.Empty(t, plan.FeaturedImage)
		assert.Equal(t, []string{prev}, plan.Delete)
		assert.Empty(t, plan.Written, "remove wins over a new upload")
	})

	t.Run("remove flag without previous image", func(t *testing.T) {
		r, _ := setup()
		plan, err := r.Reconcile(context.Background(), Input{
			Submitted:      []models.ContentBlock{models.TextBlock("t", "x")},
			RemoveFeatured: true,
		})
		require.NoError(t, err)
		assert.Empty(t, plan.FeaturedImage)
		assert.Empty(t, plan.Delete)
	})

	t.Run("replacement", func(t *testing.T) {
		r, _ := setup(prev)
		plan, err := r.Reconcile(context.Background(), Input{
			Submitted:        []models.ContentBlock{models.TextBlock("t", "x")},
			PreviousFeatured: prev,
			FeaturedUpload:   upload("new.jpg"),
		})
		require.NoError(t, err)
		assert.NotEqual(t, prev, plan.FeaturedImage)
		assert.NotEmpty(t, plan.FeaturedImage)
		assert.Equal(t, []string{prev}, plan.Delete)
	})

	t.Run("unchanged", func(t *testing.T) {
		r, _ := setup(prev)
		plan, err := r.Reconcile(context.Background(), Input{
			Submitted:        []models.ContentBlock{models.TextBlock("t", "x")},
			PreviousFeatured: prev,
		})
		require.NoError(t, err)
		assert.Equal(t, prev, plan.FeaturedImage)
		assert.Empty(t, plan.Delete)
	})
}

func TestReconcile_StoreFailureRemovesWrittenBlobs(t *testing.T) {
	r, store := setup()
	failing := &failAfter{BlobStore: store, remaining: 1}
	r.blobs = failing

	_, err := r.Reconcile(context.Background(), Input{
		Submitted: []models.ContentBlock{newUpload("i1", ""), newUpload("i2", "")},
	})

	var storeErr *storage.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, 0, store.Len(), "the first upload must be rolled back")
}

func TestReconcile_DeleteNeverContainsKeptRefs(t *testing.T) {
	shared := "news_content_images/shared.jpg"
	r, _ := setup(shared)

	// A malformed previous document lists the same ref twice; one block keeps it.
	plan, err := r.Reconcile(context.Background(), Input{
		Previous: []models.ContentBlock{
			models.ImageBlock("i1", shared, ""),
			models.ImageBlock("i2", shared, ""),
		},
		Submitted: []models.ContentBlock{models.ImageBlock("i1", shared, "")},
	})
	require.NoError(t, err)
	assert.Empty(t, plan.Delete)
}

func TestCleanup_IgnoresFailures(t *testing.T) {
	r, store := setup("a", "b")
	assert.Equal(t, 0, r.Cleanup(context.Background(), []string{"a", "missing"}))

	store.FailDelete = errors.New("unavailable")
	assert.Equal(t, 1, r.Cleanup(context.Background(), []string{"b"}))
}

func TestReconcile_PreviousUntouched(t *testing.T) {
	previous := []models.ContentBlock{models.ImageBlock("i1", "news_content_images/a.jpg", "cap")}
	snapshot := append([]models.ContentBlock(nil), previous...)
	r, _ := setup("news_content_images/a.jpg")

	_, err := r.Reconcile(context.Background(), Input{
		Previous:  previous,
		Submitted: []models.ContentBlock{newUpload("i1", "new")},
	})
	require.NoError(t, err)
	assert.Equal(t, snapshot, previous)
}

// failAfter lets a number of Store calls through, then fails
type failAfter struct {
	storage.BlobStore
	remaining int
}

func (f *failAfter) Store(ctx context.Context, dir string, u *storage.Upload) (string, error) {
	if f.remaining == 0 {
		return "", &storage.Error{Op: "store", Err: errors.New("disk full")}
	}
	f.remaining--
	return f.BlobStore.Store(ctx, dir, u)
}
