// Package reconcile keeps the blob store consistent with an article's
// content blocks and featured image across edits.
//
// Reconcile writes new uploads and computes which superseded blobs may be
// removed; it never deletes anything itself. Callers persist the returned
// Plan first and only then pass Plan.Delete to Cleanup, so a crash between
// the two steps leaves an unreferenced blob rather than a dangling reference.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/metrics"
	"github.com/news-publishing-api/internal/models"
	"github.com/news-publishing-api/internal/storage"
)

// Input is the previous and desired state of an article's assets
type Input struct {
	Previous         []models.ContentBlock
	Submitted        []models.ContentBlock
	PreviousFeatured string
	RemoveFeatured   bool
	FeaturedUpload   *storage.Upload
}

// Plan is the reconciled state to persist plus the blobs it supersedes
type Plan struct {
	// Blocks is the submitted list with every upload replaced by its stored ref
	Blocks []models.ContentBlock
	// FeaturedImage is the featured image ref to persist ("" for none)
	FeaturedImage string
	// Delete lists superseded refs, safe to remove once Blocks is persisted
	Delete []string
	// Written lists refs stored by this call, to remove if persisting fails
	Written []string
}

// UnknownRefError is returned when a submitted image block carries a blob
// reference that its previous version did not own.
type UnknownRefError struct {
	Index   int
	BlockID string
	Ref     string
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("content block %d (%s) references unknown image %q", e.Index, e.BlockID, e.Ref)
}

// Field returns the submission field the error belongs to
func (e *UnknownRefError) Field() string {
	return fmt.Sprintf("content_blocks.%d.data.blob_ref", e.Index)
}

// Reconciler diffs content block sets against the blob store
type Reconciler struct {
	blobs storage.BlobStore
	log   zerolog.Logger
}

// New creates a Reconciler writing to store
func New(store storage.BlobStore, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		blobs: store,
		log:   log.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile stores new uploads and computes the blobs superseded by the
// submission. Input.Previous is never modified.
func (r *Reconciler) Reconcile(ctx context.Context, in Input) (*Plan, error) {
	previousRefs := make(map[string]string, len(in.Previous))
	var previousOrder []string
	for _, block := range in.Previous {
		if img, ok := block.Image(); ok && img.BlobRef != "" {
			previousRefs[block.ID] = img.BlobRef
			previousOrder = append(previousOrder, img.BlobRef)
		}
	}

	// Reject foreign refs before touching the store.
	for i, block := range in.Submitted {
		img, ok := block.Image()
		if !ok || img.Upload != nil || img.BlobRef == "" {
			continue
		}
		if previousRefs[block.ID] != img.BlobRef {
			return nil, &UnknownRefError{Index: i, BlockID: block.ID, Ref: img.BlobRef}
		}
	}

	plan := &Plan{
		Blocks:        make([]models.ContentBlock, 0, len(in.Submitted)),
		FeaturedImage: in.PreviousFeatured,
	}
	kept := make(map[string]bool)

	for _, block := range in.Submitted {
		img, ok := block.Image()
		if !ok {
			plan.Blocks = append(plan.Blocks, block)
			continue
		}

		switch {
		case img.Upload != nil:
			ref, err := r.store(ctx, storage.DirContentImages, img.Upload)
			if err != nil {
				r.abort(ctx, plan)
				return nil, err
			}
			plan.Written = append(plan.Written, ref)
			img.BlobRef = ref
			img.Upload = nil
			kept[ref] = true
		case img.BlobRef != "":
			kept[img.BlobRef] = true
		default:
			img.BlobRef = ""
		}

		plan.Blocks = append(plan.Blocks, models.ContentBlock{ID: block.ID, Data: img})
	}

	var superseded []string
	for _, ref := range previousOrder {
		if !kept[ref] {
			superseded = append(superseded, ref)
		}
	}

	switch {
	case in.RemoveFeatured && in.PreviousFeatured != "":
		superseded = append(superseded, in.PreviousFeatured)
		plan.FeaturedImage = ""
	case in.FeaturedUpload != nil:
		ref, err := r.store(ctx, storage.DirFeaturedImages, in.FeaturedUpload)
		if err != nil {
			r.abort(ctx, plan)
			return nil, err
		}
		plan.Written = append(plan.Written, ref)
		if in.PreviousFeatured != "" {
			superseded = append(superseded, in.PreviousFeatured)
		}
		plan.FeaturedImage = ref
	}

	if plan.FeaturedImage != "" {
		kept[plan.FeaturedImage] = true
	}
	plan.Delete = dedupe(superseded, kept)

	return plan, nil
}

// Cleanup deletes paths best-effort. Failures are logged and counted, never
// returned. It reports the number of paths that could not be removed.
func (r *Reconciler) Cleanup(ctx context.Context, paths []string) int {
	failed := 0
	for _, p := range paths {
		start := time.Now()
		err := r.blobs.Delete(ctx, p)
		metrics.ObserveBlobOperation("delete", start, err)
		if err != nil {
			failed++
			r.log.Warn().Err(err).Str("path", p).Msg("Failed to delete blob, leaving it orphaned")
			continue
		}
		r.log.Debug().Str("path", p).Msg("Deleted blob")
	}
	return failed
}

func (r *Reconciler) store(ctx context.Context, dir string, upload *storage.Upload) (string, error) {
	start := time.Now()
	ref, err := r.blobs.Store(ctx, dir, upload)
	metrics.ObserveBlobOperation("store", start, err)
	return ref, err
}

// abort removes blobs written by a reconcile that cannot complete
func (r *Reconciler) abort(ctx context.Context, plan *Plan) {
	if len(plan.Written) == 0 {
		return
	}
	r.log.Warn().Int("count", len(plan.Written)).Msg("Store failed, removing blobs written by this save")
	r.Cleanup(ctx, plan.Written)
	plan.Written = nil
}

// dedupe drops duplicates and anything still referenced
func dedupe(paths []string, kept map[string]bool) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || kept[p] || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
