// Package bibmeta implements the model-backed metadata stage: structured
// bibliographic metadata from the head region and the reference list from the
// tail region.
package bibmeta

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/structpipe/structpipe/internal/document"
	"github.com/structpipe/structpipe/internal/llm"
)

// Input caps keep prompts bounded on degenerate regions.
const (
	headInputLimit = 8000
	tailInputLimit = 15000

	headMinChars = 10
	tailMinChars = 50
)

// Extractor runs the metadata stage against a chat model.
type Extractor struct {
	Client llm.Client
	Model  string
}

// RegionText joins the texts of the elements inside a region with blank
// lines. Elements without text contribute their captions.
func RegionText(doc *document.Document, r document.Region) string {
	if r.Empty() {
		return ""
	}
	var parts []string
	for seq := r.StartSeq; seq <= r.EndSeq && seq <= len(doc.Elements); seq++ {
		el := doc.Elements[seq-1]
		if el.Content.Text != "" {
			parts = append(parts, el.Content.Text)
			continue
		}
		if len(el.Content.Captions) > 0 {
			parts = append(parts, strings.Join(el.Content.Captions, "\n"))
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	reFencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	reJSONArray  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// jsonPayload strips a Markdown code fence from a model response, if present.
func jsonPayload(response string) string {
	if m := reFencedJSON.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

func strField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", int64(v)))
	}
	return ""
}

func strListField(m map[string]any, key string) []string {
	list, _ := m[key].([]any)
	var out []string
	for _, v := range list {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// parseBibliographic decodes the head-region response tolerantly: fenced or
// bare JSON, string or numeric year.
func parseBibliographic(response string) *document.BibliographicMetadata {
	var m map[string]any
	if err := sonic.UnmarshalString(jsonPayload(response), &m); err != nil || len(m) == 0 {
		return nil
	}
	meta := &document.BibliographicMetadata{
		Title:        strField(m, "title"),
		Authors:      strListField(m, "authors"),
		Affiliations: strListField(m, "affiliations"),
		Keywords:     strListField(m, "keywords"),
		Venue:        strField(m, "venue"),
		Year:         strField(m, "year"),
	}
	if meta.Title == "" && len(meta.Authors) == 0 && len(meta.Keywords) == 0 {
		return nil
	}
	return meta
}

// parseReferences decodes the tail-region response: the first JSON array in
// the text, entries either strings or {index,text} objects.
func parseReferences(response string) []document.ReferenceEntry {
	m := reJSONArray.FindString(jsonPayload(response))
	if m == "" {
		return nil
	}
	var raw []any
	if err := sonic.UnmarshalString(m, &raw); err != nil {
		return nil
	}
	var out []document.ReferenceEntry
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				out = append(out, document.ReferenceEntry{Index: i + 1, Text: strings.TrimSpace(v)})
			}
		case map[string]any:
			text := strField(v, "text")
			if text == "" {
				continue
			}
			idx := i + 1
			if n, ok := v["index"].(float64); ok && int(n) > 0 {
				idx = int(n)
			}
			out = append(out, document.ReferenceEntry{Index: idx, Text: text})
		}
	}
	return out
}

func (e *Extractor) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func capRunes(s string, limit int) string {
	if runes := []rune(s); len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// Extract fills metadata.bibliographic from the head region and
// metadata.references from the tail region, then advances the stage marker.
// Either half failing degrades that half only.
func (e *Extractor) Extract(ctx context.Context, doc *document.Document) error {
	div := doc.Metadata.RegionDivision
	if div == nil {
		return fmt.Errorf("document %s has no region division", doc.Metadata.DocID)
	}
	lang := doc.Metadata.Language

	if head := RegionText(doc, div.Head); len([]rune(strings.TrimSpace(head))) >= headMinChars {
		prompt := fmt.Sprintf(headPrompt(lang), capRunes(head, headInputLimit))
		if resp, err := e.complete(ctx, prompt); err != nil {
			log.Warn().Err(err).Str("doc", doc.Metadata.DocID).Msg("head metadata extraction failed")
		} else if meta := parseBibliographic(resp); meta != nil {
			doc.Metadata.Bibliographic = meta
		} else {
			log.Warn().Str("doc", doc.Metadata.DocID).Msg("head metadata response unparseable")
		}
	} else {
		log.Debug().Str("doc", doc.Metadata.DocID).Msg("head region too short for metadata extraction")
	}

	if tail := RegionText(doc, div.Tail); len([]rune(strings.TrimSpace(tail))) >= tailMinChars {
		prompt := fmt.Sprintf(referencesPrompt(lang), capRunes(tail, tailInputLimit))
		if resp, err := e.complete(ctx, prompt); err != nil {
			log.Warn().Err(err).Str("doc", doc.Metadata.DocID).Msg("reference extraction failed")
		} else if refs := parseReferences(resp); len(refs) > 0 {
			doc.Metadata.References = refs
		} else {
			log.Warn().Str("doc", doc.Metadata.DocID).Msg("reference response unparseable")
		}
	} else {
		log.Debug().Str("doc", doc.Metadata.DocID).Msg("tail region too short for reference extraction")
	}

	doc.Metadata.ParseStage = document.StageMetadata
	return nil
}
