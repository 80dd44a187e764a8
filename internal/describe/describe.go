// Package describe implements the model-backed image description stage: every
// element that carries an extracted asset image gets a textual description of
// the figure, table or equation it shows.
package describe

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/structpipe/structpipe/internal/document"
	"github.com/structpipe/structpipe/internal/llm"
)

// summaryInputLimit caps the document text handed to the summary prompt.
const summaryInputLimit = 8000

// Describer fills content.description for asset-bearing elements.
type Describer struct {
	Client llm.Client
	Model  string
	// Concurrency bounds the in-flight vision calls per document. Zero
	// selects 4.
	Concurrency int
}

func (d *Describer) concurrency() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return 4
}

// imageKind classifies an asset as "figure", "table" or "equation" from the
// element type, falling back to path hints.
func imageKind(imagePath, elementType string) string {
	et := strings.ToLower(elementType)
	switch {
	case strings.Contains(et, "equation"), strings.Contains(et, "formula"), strings.Contains(et, "code"):
		return "equation"
	case strings.Contains(et, "table"):
		return "table"
	}
	p := strings.ToLower(imagePath)
	switch {
	case strings.Contains(p, "equation"), strings.Contains(p, "formula"), strings.Contains(strings.ReplaceAll(p, "-", ""), "eq"):
		return "equation"
	case strings.Contains(p, "table"), strings.Contains(p, "tab"):
		return "table"
	}
	return "figure"
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// dataURL reads an image file and encodes it for the vision API.
func dataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return "data:" + mimeType(path) + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// documentSummary returns context for the per-image prompts: the document's
// abstract when one was recovered, otherwise a model-generated summary of the
// full text. Degrades to "" rather than failing the stage.
func (d *Describer) documentSummary(ctx context.Context, doc *document.Document) string {
	lang := doc.Metadata.Language
	if doc.Metadata.Abstract != nil {
		if text := doc.Metadata.Abstract.Text(lang); text != "" {
			return text
		}
	}

	var lines []string
	for _, el := range doc.Elements {
		if el.Content.Text != "" {
			lines = append(lines, el.Content.Text)
		}
	}
	full := strings.Join(lines, "\n")
	if strings.TrimSpace(full) == "" {
		return ""
	}
	if runes := []rune(full); len(runes) > summaryInputLimit {
		full = string(runes[:summaryInputLimit])
	}

	resp, err := d.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(summaryPrompt(lang), full),
		}},
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Warn().Err(err).Str("doc", doc.Metadata.DocID).Msg("document summary unavailable")
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// describeOne runs a single vision call. Errors degrade to an empty
// description; the element keeps its asset path for a later re-run.
func (d *Describer) describeOne(ctx context.Context, el *document.Element, summary, lang string) string {
	url, err := dataURL(el.Source.ImagePath)
	if err != nil {
		log.Warn().Err(err).Str("element", el.ID).Msg("asset image unreadable")
		return ""
	}
	prompt := fmt.Sprintf(descriptionPrompt(lang, imageKind(el.Source.ImagePath, el.Type)), summary)

	resp, err := d.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url}},
			},
		}},
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Warn().Err(err).Str("element", el.ID).Msg("image description failed")
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// Describe generates descriptions for every asset-bearing element that does
// not already have one, then advances the stage marker. Returns the number of
// elements described. Per-image failures never fail the document.
func (d *Describer) Describe(ctx context.Context, doc *document.Document) int {
	var pending []*document.Element
	for _, el := range doc.Elements {
		if el.Source.ImagePath != "" && strings.TrimSpace(el.Content.Description) == "" {
			pending = append(pending, el)
		}
	}
	if len(pending) == 0 {
		doc.Metadata.ParseStage = document.StageDescribed
		return 0
	}

	summary := d.documentSummary(ctx, doc)
	lang := doc.Metadata.Language

	sem := make(chan struct{}, d.concurrency())
	var wg sync.WaitGroup
	for _, el := range pending {
		wg.Add(1)
		go func(el *document.Element) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			el.Content.Description = d.describeOne(ctx, el, summary, lang)
		}(el)
	}
	wg.Wait()

	described := 0
	for _, el := range pending {
		if el.Content.Description != "" {
			described++
		}
	}
	doc.Metadata.ParseStage = document.StageDescribed
	log.Info().Str("doc", doc.Metadata.DocID).Int("pending", len(pending)).Int("described", described).Msg("image descriptions generated")
	return described
}
