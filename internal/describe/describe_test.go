package describe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/structpipe/structpipe/internal/document"
)

type stubClient struct {
	calls int
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	content := "a generated summary"
	if len(req.Messages) > 0 && len(req.Messages[0].MultiContent) > 0 {
		content = "a generated description"
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
	}, nil
}

func TestImageKind(t *testing.T) {
	if got := imageKind("images/fig1.png", "image"); got != "figure" {
		t.Fatalf("got %q", got)
	}
	if got := imageKind("images/x.png", "table"); got != "table" {
		t.Fatalf("got %q", got)
	}
	if got := imageKind("images/formula_3.png", "image"); got != "equation" {
		t.Fatalf("got %q", got)
	}
}

func TestMimeType(t *testing.T) {
	if got := mimeType("a/b.PNG"); got != "image/png" {
		t.Fatalf("got %q", got)
	}
	if got := mimeType("a/b.jpg"); got != "image/jpeg" {
		t.Fatalf("got %q", got)
	}
}

func TestDescribe_FillsMissingDescriptions(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "fig1.png")
	if err := os.WriteFile(imgPath, []byte("not really a png"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	doc := &document.Document{
		Metadata: document.Metadata{
			DocID:      "d",
			Language:   "en",
			ParseStage: document.StageDivided,
			Abstract:   &document.Abstract{Entries: []document.AbstractEntry{{Language: "en", Text: "An abstract."}}},
		},
		Elements: []*document.Element{
			{Type: document.TypeImage, Source: document.Source{ImagePath: imgPath}},
			{Type: document.TypeTable, Source: document.Source{ImagePath: imgPath}, Content: document.Content{Description: "already described"}},
			{Type: document.TypeParagraph, Content: document.Content{Text: "Prose."}},
		},
	}
	doc.Renumber()

	stub := &stubClient{}
	d := &Describer{Client: stub, Model: "test-model"}
	n := d.Describe(context.Background(), doc)

	if n != 1 {
		t.Fatalf("described %d, want 1", n)
	}
	if got := doc.Elements[0].Content.Description; got != "a generated description" {
		t.Fatalf("description %q", got)
	}
	if got := doc.Elements[1].Content.Description; got != "already described" {
		t.Fatalf("existing description overwritten: %q", got)
	}
	if doc.Metadata.ParseStage != document.StageDescribed {
		t.Fatalf("stage %q", doc.Metadata.ParseStage)
	}
	// abstract present, so no summary call: exactly one vision call
	if stub.calls != 1 {
		t.Fatalf("calls %d, want 1", stub.calls)
	}
}

func TestDescribe_MissingImageDegrades(t *testing.T) {
	doc := &document.Document{
		Metadata: document.Metadata{DocID: "d", Language: "en"},
		Elements: []*document.Element{
			{Type: document.TypeImage, Source: document.Source{ImagePath: "/nonexistent/fig.png"}},
		},
	}
	doc.Renumber()

	d := &Describer{Client: &stubClient{}, Model: "test-model"}
	if n := d.Describe(context.Background(), doc); n != 0 {
		t.Fatalf("described %d, want 0", n)
	}
	if doc.Metadata.ParseStage != document.StageDescribed {
		t.Fatalf("stage %q", doc.Metadata.ParseStage)
	}
}

func TestPrompts_ContainSummarySlot(t *testing.T) {
	for _, lang := range []string{"en", "zh"} {
		for _, kind := range []string{"figure", "table", "equation"} {
			if !strings.Contains(descriptionPrompt(lang, kind), "%s") {
				t.Errorf("prompt %s/%s lacks summary slot", lang, kind)
			}
		}
		if !strings.Contains(summaryPrompt(lang), "%s") {
			t.Errorf("summary prompt %s lacks text slot", lang)
		}
	}
}
