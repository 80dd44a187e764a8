// Package app wires the pipeline stages into a batch driver: element fusion,
// fragment repair, region division and the optional model-backed stages, run
// over every document directory under the input root.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/structpipe/structpipe/internal/bibmeta"
	"github.com/structpipe/structpipe/internal/describe"
	"github.com/structpipe/structpipe/internal/document"
	"github.com/structpipe/structpipe/internal/fragment"
	"github.com/structpipe/structpipe/internal/fuse"
	"github.com/structpipe/structpipe/internal/llm"
	"github.com/structpipe/structpipe/internal/region"
)

// ErrNoDocuments indicates the input root contained no document directories.
var ErrNoDocuments = errors.New("no document directories found")

// App is the batch pipeline driver.
type App struct {
	cfg       Config
	client    llm.Client
	extractor *fuse.Extractor
	segmenter *region.Segmenter
}

// New validates the configuration and builds the stage components. The model
// client is only constructed when a model-backed stage is enabled.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.InputDir == "" {
		return nil, errors.New("config: input directory is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("config: output directory is required")
	}
	if cfg.needsLLM() && cfg.LLMModel == "" {
		return nil, errors.New("config: llm.model is required for model-backed stages (or set LLM_MODEL)")
	}

	a := &App{
		cfg:       cfg,
		extractor: &fuse.Extractor{Tolerance: cfg.MatchTolerance, PDFDir: cfg.PDFDir},
		segmenter: region.NewSegmenter(region.Config{
			TOCRowMaxLen: cfg.TOCRowMaxLen,
			LabelMaxLen:  cfg.LabelMaxLen,
		}),
	}

	if cfg.needsLLM() {
		provider := llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey)
		a.client = provider
		if cfg.Verbose {
			if models, err := provider.ListModels(ctx); err != nil {
				log.Warn().Err(err).Msg("model endpoint probe failed; continuing")
			} else {
				log.Debug().Int("models", len(models.Models)).Msg("model endpoint reachable")
			}
		}
	}
	return a, nil
}

// targetStage is the last stage the current configuration runs.
func (a *App) targetStage() string {
	switch {
	case a.cfg.DescribeImages:
		return document.StageDescribed
	case a.cfg.ExtractMetadata:
		return document.StageMetadata
	default:
		return document.StageDivided
	}
}

// listDocDirs returns the per-document subdirectories of the input root in
// name order.
func (a *App) listDocDirs() ([]string, error) {
	entries, err := os.ReadDir(a.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(a.cfg.InputDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// processDoc runs one document through every stage it has not yet passed.
// Each completed stage persists before the next begins, so an interrupted run
// resumes where it stopped.
func (a *App) processDoc(ctx context.Context, dir string) (skipped bool, err error) {
	docID := filepath.Base(dir)
	outPath := document.OutputPath(a.cfg.OutputDir, docID)

	var doc *document.Document
	if !a.cfg.Force {
		if existing, loadErr := document.Load(outPath); loadErr == nil {
			if document.AtOrPast(existing.Metadata.ParseStage, a.targetStage()) {
				log.Debug().Str("doc", docID).Str("stage", existing.Metadata.ParseStage).Msg("already processed, skipping")
				return true, nil
			}
			doc = existing
		}
	}

	if doc == nil {
		doc, err = a.extractor.Extract(dir, docID)
		if err != nil {
			return false, err
		}
		if err := document.Save(outPath, doc); err != nil {
			return false, err
		}
	}

	if !document.AtOrPast(doc.Metadata.ParseStage, document.StageMerged) {
		res := fragment.Merge(doc)
		fragment.RemapRegions(doc.Metadata.RegionDivision, res.SeqMap)
		if res.Merged > 0 {
			log.Debug().Str("doc", docID).Int("merged", res.Merged).Msg("fragments repaired")
		}
		if err := document.Save(outPath, doc); err != nil {
			return false, err
		}
	}

	if !document.AtOrPast(doc.Metadata.ParseStage, document.StageDivided) {
		a.segmenter.Segment(doc)
		if err := document.Save(outPath, doc); err != nil {
			return false, err
		}
	}

	if a.cfg.ExtractMetadata && !document.AtOrPast(doc.Metadata.ParseStage, document.StageMetadata) {
		if err := (&bibmeta.Extractor{Client: a.client, Model: a.cfg.LLMModel}).Extract(ctx, doc); err != nil {
			return false, err
		}
		if err := document.Save(outPath, doc); err != nil {
			return false, err
		}
	}

	if a.cfg.DescribeImages && !document.AtOrPast(doc.Metadata.ParseStage, document.StageDescribed) {
		(&describe.Describer{Client: a.client, Model: a.cfg.LLMModel, Concurrency: a.cfg.Concurrency}).Describe(ctx, doc)
		if err := document.Save(outPath, doc); err != nil {
			return false, err
		}
	}

	return false, nil
}

// Run processes every document directory under the input root with a bounded
// worker pool. A failing document is logged and counted, never aborts the
// batch. Returns ErrNoDocuments when there is nothing to process.
func (a *App) Run(ctx context.Context) error {
	dirs, err := a.listDocDirs()
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return fmt.Errorf("%w under %s", ErrNoDocuments, a.cfg.InputDir)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	processed, skipped, failed := 0, 0, 0

	for i := 0; i < a.cfg.concurrency(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range jobs {
				started := time.Now()
				wasSkipped, err := a.processDoc(ctx, dir)
				if err == nil && !wasSkipped {
					log.Debug().Str("doc", filepath.Base(dir)).Dur("took", time.Since(started)).Msg("document processed")
				}
				mu.Lock()
				switch {
				case err != nil:
					failed++
				case wasSkipped:
					skipped++
				default:
					processed++
				}
				mu.Unlock()
				if err != nil {
					log.Warn().Err(err).Str("doc", filepath.Base(dir)).Msg("document failed")
				}
			}
		}()
	}

	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- dir:
		}
	}
	close(jobs)
	wg.Wait()

	log.Info().
		Int("processed", processed).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("pipeline run complete")
	return nil
}
