package models

import (
	"encoding/json"
	"fmt"

	"github.com/news-publishing-api/internal/storage"
)

// BlockType identifies the variant of a content block
type BlockType string

const (
	BlockTypeText  BlockType = "text"
	BlockTypeImage BlockType = "image"
)

// ValidBlockTypes defines allowed content block types
var ValidBlockTypes = map[string]bool{
	string(BlockTypeText):  true,
	string(BlockTypeImage): true,
}

// BlockData is the payload of a content block. It is implemented only by
// TextData and ImageData.
type BlockData interface {
	blockType() BlockType
}

// TextData is the payload of a text block
type TextData struct {
	Text string `json:"text"`
}

func (TextData) blockType() BlockType { return BlockTypeText }

// ImageData is the payload of an image block. BlobRef points at an asset that
// is already stored; Upload carries a new file that has not been stored yet.
type ImageData struct {
	Caption string          `json:"caption,omitempty"`
	BlobRef string          `json:"blob_ref,omitempty"`
	Upload  *storage.Upload `json:"-"`
}

func (ImageData) blockType() BlockType { return BlockTypeImage }

// ContentBlock is one ordered unit of an article body
type ContentBlock struct {
	ID   string
	Data BlockData
}

// Type returns the block's type tag
func (b ContentBlock) Type() BlockType {
	if b.Data == nil {
		return ""
	}
	return b.Data.blockType()
}

// Image returns the image payload and whether the block is an image block
func (b ContentBlock) Image() (ImageData, bool) {
	img, ok := b.Data.(ImageData)
	return img, ok
}

// TextBlock builds a text block
func TextBlock(id, text string) ContentBlock {
	return ContentBlock{ID: id, Data: TextData{Text: text}}
}

// ImageBlock builds an image block referencing a stored blob
func ImageBlock(id, blobRef, caption string) ContentBlock {
	return ContentBlock{ID: id, Data: ImageData{BlobRef: blobRef, Caption: caption}}
}

type contentBlockJSON struct {
	ID   string          `json:"id"`
	Type BlockType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the block as {"id", "type", "data"}
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if b.Data == nil {
		return nil, fmt.Errorf("content block %q has no data", b.ID)
	}
	data, err := json.Marshal(b.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(contentBlockJSON{ID: b.ID, Type: b.Type(), Data: data})
}

// UnmarshalJSON decodes a persisted block, selecting the payload by type
func (b *ContentBlock) UnmarshalJSON(raw []byte) error {
	var envelope contentBlockJSON
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}

	b.ID = envelope.ID
	switch envelope.Type {
	case BlockTypeText:
		var data TextData
		if err := unmarshalData(envelope.Data, &data); err != nil {
			return err
		}
		b.Data = data
	case BlockTypeImage:
		var data ImageData
		if err := unmarshalData(envelope.Data, &data); err != nil {
			return err
		}
		b.Data = data
	default:
		return fmt.Errorf("unknown content block type %q", envelope.Type)
	}
	return nil
}

func unmarshalData(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// BlobRefs returns the stored blob references of all image blocks, in order
func BlobRefs(blocks []ContentBlock) []string {
	var refs []string
	for _, b := range blocks {
		if img, ok := b.Image(); ok && img.BlobRef != "" {
			refs = append(refs, img.BlobRef)
		}
	}
	return refs
}
