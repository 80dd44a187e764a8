package fuse

import (
	"strings"

	"github.com/structpipe/structpipe/internal/document"
)

// normalizeText flattens the string-or-list shapes the raw sources use for
// text fields into a single trimmed string. Lists are normalized element-wise
// and joined with single spaces; anything unrecognized yields "".
func normalizeText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := normalizeText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		return normalizeText(t["content"])
	}
	return ""
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	}
	return def
}

// inlineText renders a list of inline content parts (plain text and inline
// equations) into one string. Inline equations are wrapped in $...$. Interior
// whitespace of plain runs is preserved so adjacent runs keep their spacing;
// only the assembled result is trimmed.
func inlineText(parts []any) string {
	var b strings.Builder
	for _, p := range parts {
		switch item := p.(type) {
		case string:
			b.WriteString(item)
		case map[string]any:
			text := asString(item["content"])
			if text == "" {
				text = normalizeText(item["content"])
			}
			if text == "" {
				continue
			}
			if asString(item["type"]) == "equation_inline" {
				b.WriteString("$" + strings.TrimSpace(text) + "$")
			} else {
				b.WriteString(text)
			}
		default:
			b.WriteString(normalizeText(p))
		}
	}
	return strings.TrimSpace(b.String())
}

// captionList flattens a raw caption field (strings or {content} objects) into
// a list of non-empty strings.
func captionList(v any) []string {
	var out []string
	for _, item := range asSlice(v) {
		if s := normalizeText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// buildContent assembles the typed content payload for one raw element. Each
// type reads its own structured fields and falls back to the flat text field
// when they are absent.
func buildContent(elementType string, raw RawElement) document.Content {
	c := raw.Content
	switch elementType {
	case document.TypeParagraph, document.TypeReference:
		if parts := asSlice(c["paragraph_content"]); len(parts) > 0 {
			return document.Content{Text: inlineText(parts)}
		}
		return document.Content{Text: normalizeText(raw.Text)}

	case document.TypeTitle:
		level := asInt(c["level"], 1)
		if parts := asSlice(c["title_content"]); len(parts) > 0 {
			return document.Content{Text: inlineText(parts), Level: level}
		}
		return document.Content{Text: normalizeText(raw.Text), Level: level}

	case document.TypeList:
		if items := asSlice(c["list_items"]); len(items) > 0 {
			var lines []string
			for _, it := range items {
				entry, _ := it.(map[string]any)
				line := inlineText(asSlice(entry["item_content"]))
				if line == "" {
					line = normalizeText(entry)
				}
				if line != "" {
					lines = append(lines, line)
				}
			}
			return document.Content{Text: strings.Join(lines, "\n")}
		}
		return document.Content{Text: normalizeText(raw.Text)}

	case document.TypeTable:
		html := asString(c["html"])
		if html == "" {
			html = asString(c["table_body"])
		}
		return document.Content{
			HTML:     html,
			Captions: captionList(c["table_caption"]),
		}

	case document.TypeImage:
		return document.Content{Captions: captionList(c["image_caption"])}

	case document.TypeCode:
		text := asString(c["code_content"])
		if text == "" {
			text = raw.Code
		}
		if text == "" {
			text = normalizeText(raw.Text)
		}
		return document.Content{Text: text, Language: asString(c["code_language"])}

	case document.TypeEquation:
		math := asString(c["math_content"])
		if math == "" {
			math = normalizeText(raw.Text)
		}
		format := asString(c["math_type"])
		if raw.TextFormat != "" {
			format = raw.TextFormat
		}
		if format == "" {
			format = "latex"
		}
		text := math
		if text != "" && !strings.HasPrefix(text, "$$") {
			text = "$$ " + text + " $$"
		}
		return document.Content{Text: text, Format: format}
	}

	return document.Content{Text: normalizeText(raw.Text)}
}

// isEmptyContent reports whether an element carries nothing worth keeping and
// should be dropped before renumbering. Images are always kept: the asset
// file itself is the content.
func isEmptyContent(elementType string, c document.Content) bool {
	switch elementType {
	case document.TypeTable:
		return c.HTML == "" && len(c.Captions) == 0
	case document.TypeImage:
		return false
	}
	return c.Text == ""
}

// buildMetadata derives the type-specific metadata block. Returns nil when
// nothing applies so the field is omitted from JSON.
func buildMetadata(elementType string, raw RawElement, c document.Content) *document.ElementMetadata {
	var m document.ElementMetadata
	switch elementType {
	case document.TypeTable:
		m.TableType = asString(raw.Content["table_type"])
		if m.TableType == "" {
			m.TableType = "simple_table"
		}
		m.RowCount, m.ColCount = tableDims(c.HTML)
	case document.TypeCode:
		m.LineCount = strings.Count(c.Text, "\n") + 1
		m.Language = c.Language
	case document.TypeEquation:
		m.Format = c.Format
	default:
		m.CharCount = len([]rune(c.Text))
	}
	if m.IsZero() {
		return nil
	}
	return &m
}
