package app

// Config carries all runtime settings for a pipeline run. Flags, environment
// and the optional config file all funnel into this struct.
type Config struct {
	// InputDir is the root directory of converted documents: one
	// subdirectory per document, named by document id.
	InputDir string
	// OutputDir is the document store the pipeline writes {doc_id}.json to.
	OutputDir string
	// PDFDir optionally locates the source PDFs, recorded in metadata.
	PDFDir string

	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Concurrency bounds the number of documents processed in parallel.
	// Zero selects 4.
	Concurrency int
	// MatchTolerance is the centroid distance in pixels for asset matching.
	// Zero selects the default.
	MatchTolerance float64

	// TOCRowMaxLen and LabelMaxLen tune the region-marker heuristics.
	// Zero selects the defaults.
	TOCRowMaxLen int
	LabelMaxLen  int

	// ExtractMetadata enables the model-backed bibliographic stage.
	ExtractMetadata bool
	// DescribeImages enables the model-backed image description stage.
	DescribeImages bool

	// Force reprocesses documents regardless of their recorded stage.
	Force bool

	Verbose bool
}

func (c Config) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return 4
}

// needsLLM reports whether any enabled stage requires a model endpoint.
func (c Config) needsLLM() bool {
	return c.ExtractMetadata || c.DescribeImages
}
