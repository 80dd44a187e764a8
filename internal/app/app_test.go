package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/structpipe/structpipe/internal/document"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const docPrimary = `[
  [
    {"type":"title","content":{"title_content":[{"content":"Abstract"}],"level":1},"bbox":[60,30,540,60]},
    {"type":"text","text":"We describe the whole system in brief."}
  ],
  [
    {"type":"title","content":{"title_content":[{"content":"1 Introduction"}],"level":1},"bbox":[60,30,540,60]},
    {"type":"text","text":"The introduction begins with a broken"},
    {"type":"text","text":"sentence that continues here."}
  ],
  [
    {"type":"title","content":{"title_content":[{"content":"References"}],"level":1},"bbox":[60,30,540,60]},
    {"type":"text","text":"[1] A. Author. A paper. 2020."}
  ]
]`

func writeDocDir(t *testing.T, root, docID string) {
	t.Helper()
	writeFile(t, filepath.Join(root, docID, "content_list_v2.json"), docPrimary)
}

func TestRun_ProcessesBatchThroughRegionStage(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeDocDir(t, input, "alpha")
	writeDocDir(t, input, "beta")

	cfg := Config{InputDir: input, OutputDir: output, Concurrency: 2}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, id := range []string{"alpha", "beta"} {
		doc, err := document.Load(document.OutputPath(output, id))
		if err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
		if doc.Metadata.ParseStage != document.StageDivided {
			t.Fatalf("%s stage %q", id, doc.Metadata.ParseStage)
		}
		doc.CheckDense()
		if doc.Metadata.RegionDivision == nil {
			t.Fatalf("%s has no region division", id)
		}
		// the split sentence on page 2 must have been repaired
		found := false
		for _, el := range doc.Elements {
			if el.Content.Text == "The introduction begins with a broken sentence that continues here." {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s fragments not merged", id)
		}
	}
}

func TestRun_SkipsProcessedDocuments(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeDocDir(t, input, "alpha")

	cfg := Config{InputDir: input, OutputDir: output}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	outPath := document.OutputPath(output, "alpha")
	before, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	after, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("second run modified an already-processed document")
	}
}

func TestRun_BadDocumentDoesNotAbortBatch(t *testing.T) {
	input := t.TempDir()
	output := t.TempDir()
	writeDocDir(t, input, "good")
	// broken doc: directory without a primary source
	if err := os.MkdirAll(filepath.Join(input, "broken"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	a, err := New(context.Background(), Config{InputDir: input, OutputDir: output})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run must not fail on a single bad document: %v", err)
	}
	if _, err := document.Load(document.OutputPath(output, "good")); err != nil {
		t.Fatalf("good document missing: %v", err)
	}
	if _, err := os.Stat(document.OutputPath(output, "broken")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("broken document should have produced no output")
	}
}

func TestRun_NoDocuments(t *testing.T) {
	a, err := New(context.Background(), Config{InputDir: t.TempDir(), OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("got %v, want ErrNoDocuments", err)
	}
}

func TestNew_RequiresModelForLLMStages(t *testing.T) {
	_, err := New(context.Background(), Config{
		InputDir: "in", OutputDir: "out", ExtractMetadata: true,
	})
	if err == nil {
		t.Fatalf("expected error without llm.model")
	}
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
	cfg := Config{InputDir: "explicit", Concurrency: 8}
	var fc FileConfig
	fc.Input = "from-file"
	fc.Output = "store"
	fc.Concurrency = 2
	fc.LLM.Model = "some-model"
	fc.Stages.Metadata = true

	ApplyFileConfig(&cfg, fc)
	if cfg.InputDir != "explicit" {
		t.Fatalf("flag value overridden: %q", cfg.InputDir)
	}
	if cfg.OutputDir != "store" {
		t.Fatalf("file value not applied: %q", cfg.OutputDir)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("flag concurrency overridden: %d", cfg.Concurrency)
	}
	if cfg.LLMModel != "some-model" || !cfg.ExtractMetadata {
		t.Fatalf("llm settings not applied: %+v", cfg)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "input: docs\noutput: store\nllm:\n  model: test-model\nstages:\n  describe: true\n")
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Input != "docs" || fc.LLM.Model != "test-model" || !fc.Stages.Describe {
		t.Fatalf("got %+v", fc)
	}
}

func TestValidateConfig_Rejections(t *testing.T) {
	if err := ValidateConfig(Config{OutputDir: "x"}); err == nil {
		t.Fatalf("missing input must fail")
	}
	if err := ValidateConfig(Config{InputDir: "a", OutputDir: "b", Concurrency: -1}); err == nil {
		t.Fatalf("negative concurrency must fail")
	}
}
