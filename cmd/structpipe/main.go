package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/structpipe/structpipe/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputDir    string
		outputDir   string
		pdfDir      string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		concurrency int
		tolerance   float64
		metadata    bool
		describe    bool
		force       bool
		verbose     bool
		configPath  string
	)

	flag.StringVar(&inputDir, "input", os.Getenv("STRUCTPIPE_INPUT"), "Root directory of converted documents (one subdirectory per document)")
	flag.StringVar(&outputDir, "output", os.Getenv("STRUCTPIPE_OUTPUT"), "Directory to write {doc_id}.json documents to")
	flag.StringVar(&pdfDir, "pdf.dir", "", "Optional directory of the source PDFs, recorded in metadata")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for the model-backed stages")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&concurrency, "concurrency", 0, "Documents processed in parallel (0 = default)")
	flag.Float64Var(&tolerance, "tolerance", 0, "Centroid distance in pixels for asset matching (0 = default)")
	flag.BoolVar(&metadata, "metadata", false, "Run the model-backed bibliographic metadata stage")
	flag.BoolVar(&describe, "describe", false, "Run the model-backed image description stage")
	flag.BoolVar(&force, "force", false, "Reprocess documents regardless of their recorded stage")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&configPath, "config", os.Getenv("STRUCTPIPE_CONFIG"), "Optional YAML/JSON config file; flags take precedence")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		PDFDir:          pdfDir,
		LLMBaseURL:      llmBaseURL,
		LLMModel:        llmModel,
		LLMAPIKey:       llmKey,
		Concurrency:     concurrency,
		MatchTolerance:  tolerance,
		ExtractMetadata: metadata,
		DescribeImages:  describe,
		Force:           force,
		Verbose:         verbose,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when there was nothing to process, 1 for
		// setup failures. Per-document failures are warnings and do not
		// reach here.
		if errors.Is(err, app.ErrNoDocuments) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx)
}
