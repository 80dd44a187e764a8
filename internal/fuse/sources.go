// Package fuse implements the first pipeline stage: fusing the raw JSON
// artifacts of a converted PDF into a single ordered document of typed
// elements with per-element provenance.
package fuse

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/structpipe/structpipe/internal/geometry"
)

// ErrPrimarySourceMissing marks a document directory whose primary structural
// source is absent or unreadable. Fatal for the document, never for the batch.
var ErrPrimarySourceMissing = errors.New("primary content list missing")

// RawElement is one entry of the primary source (content_list_v2.json). The
// content payload varies by type and is kept loosely typed until the per-type
// builders pick it apart.
type RawElement struct {
	Type       string         `json:"type"`
	BBox       []float64      `json:"bbox"`
	Content    map[string]any `json:"content"`
	Text       any            `json:"text"`
	Code       string         `json:"code"`
	TextFormat string         `json:"text_format"`
}

// RawContentItem is one entry of the secondary source
// ({uuid}_content_list.json), the flat list that carries extracted asset
// paths.
type RawContentItem struct {
	Type    string    `json:"type"`
	PageIdx int       `json:"page_idx"`
	BBox    []float64 `json:"bbox"`
	ImgPath string    `json:"img_path"`
}

// RawLayout is the subset of layout.json the fusion stage reads: per-page
// pixel dimensions.
type RawLayout struct {
	PDFInfo []struct {
		PageSize []float64 `json:"page_size"`
	} `json:"pdf_info"`
}

// PageSize returns the pixel dimensions of the first page, falling back to
// the default page size when the layout source carries none.
func (l *RawLayout) PageSize() (width, height int) {
	if l != nil && len(l.PDFInfo) > 0 && len(l.PDFInfo[0].PageSize) >= 2 {
		w := int(l.PDFInfo[0].PageSize[0])
		h := int(l.PDFInfo[0].PageSize[1])
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return geometry.DefaultPageWidth, geometry.DefaultPageHeight
}

// Sources holds the loaded raw artifacts for one document directory.
type Sources struct {
	// Pages is the primary source: one slice of raw elements per page, in
	// reading order.
	Pages [][]RawElement
	// ContentList is the secondary source; nil when absent.
	ContentList []RawContentItem
	// Layout is the layout source; nil when absent.
	Layout *RawLayout
	// ModelAvailable records whether the model output file was present.
	// Only availability matters; its contents are never read.
	ModelAvailable bool
	// UUID is the conversion id recovered from the secondary file name.
	UUID string
}

const primarySourceName = "content_list_v2.json"

// discoverUUID scans a document directory for the {uuid}_content_list.json
// secondary source and returns the uuid prefix, or "" when none exists.
func discoverUUID(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := e.Name()
		if name == primarySourceName || e.IsDir() {
			continue
		}
		if uuid, ok := strings.CutSuffix(name, "_content_list.json"); ok && uuid != "" {
			return uuid
		}
	}
	return ""
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, v)
}

// LoadSources reads the four raw artifacts of one document directory. The
// three optional sources load concurrently; a missing or malformed primary
// source fails the document with ErrPrimarySourceMissing, missing optional
// sources only degrade the result and are logged.
func LoadSources(dir string) (*Sources, error) {
	src := &Sources{UUID: discoverUUID(dir)}

	var wg sync.WaitGroup
	var primaryErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		primaryErr = readJSON(filepath.Join(dir, primarySourceName), &src.Pages)
	}()

	if src.UUID != "" {
		wg.Add(2)
		go func() {
			defer wg.Done()
			path := filepath.Join(dir, src.UUID+"_content_list.json")
			if err := readJSON(path, &src.ContentList); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("secondary content list unreadable; asset paths unavailable")
				src.ContentList = nil
			}
		}()
		go func() {
			defer wg.Done()
			path := filepath.Join(dir, src.UUID+"_model.json")
			if _, err := os.Stat(path); err == nil {
				src.ModelAvailable = true
			}
		}()
	} else {
		log.Warn().Str("dir", dir).Msg("no {uuid}_content_list.json found; asset paths unavailable")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		var layout RawLayout
		if err := readJSON(filepath.Join(dir, "layout.json"), &layout); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("layout.json unavailable; using default page size")
			return
		}
		src.Layout = &layout
	}()

	wg.Wait()

	if primaryErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPrimarySourceMissing, dir, primaryErr)
	}
	if len(src.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s: empty page list", ErrPrimarySourceMissing, dir)
	}
	return src, nil
}
