package blog

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeBlock(t *testing.T, raw string) Block {
	t.Helper()
	var b Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal block: %v", err)
	}
	return b
}

func TestBlockDecodeDefaults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want BlockAttrs
	}{
		{"heading level", `{"type":"HEADING","content":"Title"}`, HeadingAttrs{Level: 2}},
		{"code language", `{"type":"CODE","content":"x := 1"}`, CodeAttrs{Language: "javascript"}},
		{"image alignment", `{"type":"IMAGE"}`, ImageAttrs{Alignment: "center"}},
		{"callout variant", `{"type":"CALLOUT","content":"heads up"}`, CalloutAttrs{Variant: "INFO"}},
		{"list style", `{"type":"LIST"}`, ListAttrs{Style: "BULLET", Items: []string{}}},
		{"video type", `{"type":"VIDEO","videoId":"abc"}`, VideoAttrs{Type: "YOUTUBE", ID: "abc"}},
		{"paragraph style", `{"type":"PARAGRAPH","content":"hi"}`, ParagraphAttrs{Style: "normal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := decodeBlock(t, tt.raw)
			got, _ := json.Marshal(b.Attrs)
			want, _ := json.Marshal(tt.want)
			if string(got) != string(want) {
				t.Fatalf("attrs = %s, want %s", got, want)
			}
		})
	}
}

func TestBlockDecodeExplicitValuesWin(t *testing.T) {
	b := decodeBlock(t, `{"type":"HEADING","order":3,"content":"Deep","level":4}`)
	if b.Order != 3 || b.Content != "Deep" {
		t.Fatalf("unexpected head fields: %+v", b)
	}
	attrs, ok := b.Attrs.(HeadingAttrs)
	if !ok || attrs.Level != 4 {
		t.Fatalf("expected level 4, got %+v", b.Attrs)
	}
}

func TestBlockDecodeUnknownKind(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"type":"MARQUEE","content":"nope"}`), &b)
	if err == nil {
		t.Fatal("expected error for unknown block type")
	}
	if !strings.Contains(err.Error(), "MARQUEE") {
		t.Fatalf("error should name the offending kind, got %v", err)
	}
}

func TestBlockMarshalFlattens(t *testing.T) {
	b := Block{
		Kind:    BlockImage,
		Order:   2,
		Content: "",
		Attrs:   ImageAttrs{URL: "https://cdn.test/a.png", Alt: "diagram", Alignment: "left"},
	}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal block: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if m["type"] != "IMAGE" {
		t.Fatalf("type = %v", m["type"])
	}
	if m["imageUrl"] != "https://cdn.test/a.png" || m["imageAlt"] != "diagram" || m["imageAlignment"] != "left" {
		t.Fatalf("attrs not flattened: %v", m)
	}
	if _, nested := m["attrs"]; nested {
		t.Fatal("attrs must be flattened onto the block object")
	}
}

func TestBlockStorageRoundTrip(t *testing.T) {
	raw, err := attrsToJSON(ListAttrs{Style: "NUMBERED", Items: []string{"one", "two"}})
	if err != nil {
		t.Fatalf("attrsToJSON: %v", err)
	}
	attrs, err := attrsFromJSON(BlockList, raw)
	if err != nil {
		t.Fatalf("attrsFromJSON: %v", err)
	}
	list, ok := attrs.(ListAttrs)
	if !ok {
		t.Fatalf("expected ListAttrs, got %T", attrs)
	}
	if list.Style != "NUMBERED" || len(list.Items) != 2 || list.Items[1] != "two" {
		t.Fatalf("round trip lost data: %+v", list)
	}
}
