// Package session owns the mutable state of one editing session: the
// document list, the shared layout parameters, the current background
// and the generated composites. A single mutex confines all mutation;
// values cross the boundary by whole-value replacement, so callers
// never observe a half-updated document or parameter set.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/background"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/collage"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/config"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/document"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/fetch"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/ingest"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/metrics"
)

// Dependencies wires the collaborators a session needs.
type Dependencies struct {
	Ingestor *ingest.Ingestor
	Fetcher  *fetch.Fetcher
}

// Session is safe for concurrent use, though the intended model is a
// single interactive owner.
type Session struct {
	mu       sync.Mutex
	ingestor *ingest.Ingestor
	fetcher  *fetch.Fetcher

	docs    []document.Document
	params  collage.Params
	bg      image.Image
	outputs map[string][]byte // composite PNG bytes keyed by output file name
}

// New builds an empty session with the default parameters and the
// built-in background.
func New(deps Dependencies) *Session {
	return &Session{
		ingestor: deps.Ingestor,
		fetcher:  deps.Fetcher,
		params:   collage.Default,
		bg:       background.Default(),
		outputs:  make(map[string][]byte),
	}
}

// NewFromConfig builds a session with collaborators constructed from
// config.
func NewFromConfig(cfg config.Config) *Session {
	return New(Dependencies{
		Ingestor: ingest.New(cfg.Ingest),
		Fetcher:  fetch.New(cfg.Fetch),
	})
}

// AddFiles ingests a dropped batch. Files are processed sequentially
// and fail independently; every successfully ingested document is
// appended to the session in input order.
func (s *Session) AddFiles(ctx context.Context, files []ingest.File) []ingest.Result {
	results := s.ingestor.IngestBatch(ctx, files)

	s.mu.Lock()
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		s.docs = append(s.docs, r.Doc)
	}
	n := len(s.docs)
	s.mu.Unlock()

	metrics.SetDocumentsLoaded(n)
	return results
}

// AddURL fetches a remote PDF and ingests it. The document is named
// after the last element of the URL path.
func (s *Session) AddURL(ctx context.Context, rawURL string) (document.Document, error) {
	data, err := s.fetcher.FetchPDF(ctx, rawURL)
	if err != nil {
		return document.Document{}, err
	}

	doc, err := s.ingestor.Ingest(ctx, nameFromURL(rawURL), data)
	if err != nil {
		return document.Document{}, err
	}

	s.mu.Lock()
	s.docs = append(s.docs, doc)
	n := len(s.docs)
	s.mu.Unlock()

	metrics.SetDocumentsLoaded(n)
	return doc, nil
}

// Documents returns a snapshot of the current document list.
func (s *Session) Documents() []document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]document.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// SetSelection assigns pageNum to one slot of the document at index i.
// Zero clears the slot. The page must exist in that document;
// selections never cross documents.
func (s *Session) SetSelection(i int, slot document.Slot, pageNum int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.docs) {
		return fmt.Errorf("document index %d out of range", i)
	}
	d := s.docs[i]
	if pageNum != 0 {
		if _, ok := d.Page(pageNum); !ok {
			return fmt.Errorf("document %q has no page %d", d.Name, pageNum)
		}
	}
	d.Selection = d.Selection.WithPage(slot, pageNum)
	s.docs[i] = d
	return nil
}

// SetParams replaces the shared layout parameters, clamped to their
// bounds, and returns the value actually stored. Existing outputs are
// untouched until the next Generate.
func (s *Session) SetParams(p collage.Params) collage.Params {
	p = p.Clamp()
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	return p
}

// Params returns the current layout parameters.
func (s *Session) Params() collage.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetBackground replaces the backdrop from uploaded image bytes.
func (s *Session) SetBackground(data []byte) error {
	img, err := background.FromBytes(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.bg = img
	s.mu.Unlock()
	return nil
}

// SetBackgroundURL fetches a remote image and replaces the backdrop.
func (s *Session) SetBackgroundURL(ctx context.Context, rawURL string) error {
	data, err := s.fetcher.FetchImage(ctx, rawURL)
	if err != nil {
		return err
	}
	return s.SetBackground(data)
}

// ResetBackground restores the built-in default backdrop.
func (s *Session) ResetBackground() {
	s.mu.Lock()
	s.bg = background.Default()
	s.mu.Unlock()
}

// Background returns the current backdrop.
func (s *Session) Background() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bg
}

// Generate renders a composite for every document with the current
// parameters and background, wholesale: each document's output
// replaces any previous one under its name. Returns the output names
// in document order; a single document's failure never blocks the
// others.
func (s *Session) Generate(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	docs := make([]document.Document, len(s.docs))
	copy(docs, s.docs)
	params := s.params
	bg := s.bg
	s.mu.Unlock()

	names := make([]string, 0, len(docs))
	fresh := make(map[string][]byte, len(docs))
	var errs []error
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		png, err := renderDocument(d, bg, params)
		if err != nil {
			metrics.ObserveComposition("failure", time.Since(start))
			log.Error().Str("doc", d.Name).Err(err).Msg("composition failed")
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
			continue
		}
		metrics.ObserveComposition("success", time.Since(start))

		name := document.OutputName(d.Name)
		fresh[name] = png
		names = append(names, name)
	}

	s.mu.Lock()
	for name, png := range fresh {
		s.outputs[name] = png
	}
	n := len(s.outputs)
	s.mu.Unlock()

	metrics.SetOutputsStored(n)
	log.Debug().Int("documents", len(docs)).Int("outputs", len(fresh)).Msg("generated composites")
	return names, errors.Join(errs...)
}

// renderDocument resolves the document's selection into slot rasters
// and renders one composite. A selection slot pointing at an omitted
// page is treated as empty rather than failing the document.
func renderDocument(d document.Document, bg image.Image, p collage.Params) ([]byte, error) {
	var slots collage.Slots
	for _, slot := range document.Slots {
		num := d.Selection.Page(slot)
		if num == 0 {
			continue
		}
		page, ok := d.Page(num)
		if !ok {
			log.Warn().Str("doc", d.Name).Str("slot", string(slot)).Int("page", num).Msg("selected page missing, slot left empty")
			continue
		}
		switch slot {
		case document.SlotLeft:
			slots.Left = page.Image
		case document.SlotCenter:
			slots.Center = page.Image
		case document.SlotRight:
			slots.Right = page.Image
		}
	}
	return collage.EncodePNG(collage.Compose(bg, slots, p))
}

// Outputs returns a snapshot of the output map.
func (s *Session) Outputs() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.outputs))
	for k, v := range s.outputs {
		out[k] = v
	}
	return out
}

// Output returns one composite by its output file name.
func (s *Session) Output(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	png, ok := s.outputs[name]
	return png, ok
}

// Remove deletes the document at index i along with its keyed output.
// Out-of-range indexes are ignored, so repeated removal is idempotent
// and never disturbs the remaining state.
func (s *Session) Remove(i int) {
	s.mu.Lock()
	if i < 0 || i >= len(s.docs) {
		s.mu.Unlock()
		return
	}
	d := s.docs[i]
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	delete(s.outputs, document.OutputName(d.Name))
	nd, no := len(s.docs), len(s.outputs)
	s.mu.Unlock()

	metrics.SetDocumentsLoaded(nd)
	metrics.SetOutputsStored(no)
	log.Debug().Str("doc", d.Name).Int("index", i).Msg("document removed")
}

// nameFromURL derives a document name from the last path element of a
// reference, falling back to a fixed name when the URL has no usable
// path.
func nameFromURL(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = u.Path
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	return name
}
