package blog

import (
	"encoding/json"
	"fmt"
)

type BlockKind string

const (
	BlockHeading   BlockKind = "HEADING"
	BlockCode      BlockKind = "CODE"
	BlockImage     BlockKind = "IMAGE"
	BlockCallout   BlockKind = "CALLOUT"
	BlockQuote     BlockKind = "QUOTE"
	BlockList      BlockKind = "LIST"
	BlockVideo     BlockKind = "VIDEO"
	BlockParagraph BlockKind = "PARAGRAPH"
)

// Block is one ordered unit of post content. Attrs holds exactly the
// variant matching Kind; attributes of other kinds cannot be represented.
type Block struct {
	Kind    BlockKind
	Order   int
	Content string
	Attrs   BlockAttrs
}

// BlockAttrs is the tagged-union payload of a Block, one variant per kind.
type BlockAttrs interface {
	blockKind() BlockKind
}

type HeadingAttrs struct {
	Level int `json:"level"`
}

type CodeAttrs struct {
	Language string `json:"language"`
	Title    string `json:"codeTitle,omitempty"`
}

type ImageAttrs struct {
	URL       string `json:"imageUrl,omitempty"`
	Alt       string `json:"imageAlt,omitempty"`
	Caption   string `json:"imageCaption,omitempty"`
	Alignment string `json:"imageAlignment"`
}

type CalloutAttrs struct {
	Variant string `json:"calloutVariant"`
	Title   string `json:"calloutTitle,omitempty"`
}

type QuoteAttrs struct {
	Author string `json:"quoteAuthor,omitempty"`
}

type ListAttrs struct {
	Style string   `json:"listStyle"`
	Items []string `json:"listItems"`
}

type VideoAttrs struct {
	Type  string `json:"videoType"`
	ID    string `json:"videoId,omitempty"`
	Title string `json:"videoTitle,omitempty"`
}

type ParagraphAttrs struct {
	Style string `json:"paragraphStyle"`
}

func (HeadingAttrs) blockKind() BlockKind   { return BlockHeading }
func (CodeAttrs) blockKind() BlockKind      { return BlockCode }
func (ImageAttrs) blockKind() BlockKind     { return BlockImage }
func (CalloutAttrs) blockKind() BlockKind   { return BlockCallout }
func (QuoteAttrs) blockKind() BlockKind     { return BlockQuote }
func (ListAttrs) blockKind() BlockKind      { return BlockList }
func (VideoAttrs) blockKind() BlockKind     { return BlockVideo }
func (ParagraphAttrs) blockKind() BlockKind { return BlockParagraph }

// UnmarshalJSON decodes the flat wire shape ({type, order, content, ...})
// into the tagged union, applying per-kind defaults and rejecting unknown
// kinds.
func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		Type    BlockKind `json:"type"`
		Order   int       `json:"order"`
		Content string    `json:"content"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	attrs, err := decodeBlockAttrs(head.Type, data)
	if err != nil {
		return err
	}

	b.Kind = head.Type
	b.Order = head.Order
	b.Content = head.Content
	b.Attrs = attrs
	return nil
}

// MarshalJSON flattens the union back to the wire shape.
func (b Block) MarshalJSON() ([]byte, error) {
	flat := map[string]interface{}{
		"type":    b.Kind,
		"order":   b.Order,
		"content": b.Content,
	}
	if b.Attrs != nil {
		raw, err := json.Marshal(b.Attrs)
		if err != nil {
			return nil, err
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		for k, v := range m {
			flat[k] = v
		}
	}
	return json.Marshal(flat)
}

// decodeBlockAttrs switches exhaustively over every block kind. Defaults
// mirror the stored schema: level 2, language javascript, center alignment,
// INFO callout, BULLET list, YOUTUBE video, normal paragraph.
func decodeBlockAttrs(kind BlockKind, data []byte) (BlockAttrs, error) {
	switch kind {
	case BlockHeading:
		a := HeadingAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Level == 0 {
			a.Level = 2
		}
		return a, nil
	case BlockCode:
		a := CodeAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Language == "" {
			a.Language = "javascript"
		}
		return a, nil
	case BlockImage:
		a := ImageAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Alignment == "" {
			a.Alignment = "center"
		}
		return a, nil
	case BlockCallout:
		a := CalloutAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Variant == "" {
			a.Variant = "INFO"
		}
		return a, nil
	case BlockQuote:
		a := QuoteAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case BlockList:
		a := ListAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Style == "" {
			a.Style = "BULLET"
		}
		if a.Items == nil {
			a.Items = []string{}
		}
		return a, nil
	case BlockVideo:
		a := VideoAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Type == "" {
			a.Type = "YOUTUBE"
		}
		return a, nil
	case BlockParagraph:
		a := ParagraphAttrs{}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if a.Style == "" {
			a.Style = "normal"
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown content block type %q", kind)
	}
}

// attrsToJSON serializes just the variant payload for storage.
func attrsToJSON(attrs BlockAttrs) ([]byte, error) {
	if attrs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(attrs)
}

// attrsFromJSON restores the variant payload from storage.
func attrsFromJSON(kind BlockKind, raw []byte) (BlockAttrs, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return decodeBlockAttrs(kind, raw)
}
