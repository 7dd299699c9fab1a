// Package ingest turns raw PDF bytes into ordered page rasters, one
// bitmap per page. Single-page failures are tolerated and logged; a
// document where nothing renders fails as a whole, without touching
// its batch siblings.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/config"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/document"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/filetype"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/metrics"
)

// Capacity errors. Each wraps into a per-file failure and never aborts
// a sibling file.
var (
	ErrTooLarge     = errors.New("file exceeds size limit")
	ErrTooManyPages = errors.New("document exceeds page limit")
)

// File is one batch entry.
type File struct {
	Name string
	Data []byte
}

// Result reports one file's outcome within a batch.
type Result struct {
	Name string
	Doc  document.Document
	Err  error
}

// Ingestor rasterizes PDF documents.
type Ingestor struct {
	renderer Renderer
	maxPages int
	maxBytes int
}

// New builds an ingestor on the MuPDF renderer at the configured
// render scale.
func New(cfg config.IngestConfig) *Ingestor {
	return NewWithRenderer(NewFitzRenderer(cfg.RenderScale), cfg)
}

// NewWithRenderer builds an ingestor on a custom renderer backend.
func NewWithRenderer(r Renderer, cfg config.IngestConfig) *Ingestor {
	return &Ingestor{
		renderer: r,
		maxPages: cfg.MaxPages,
		maxBytes: cfg.MaxFileMB << 20,
	}
}

// Ingest rasterizes one document and returns it with its default page
// selection applied.
func (ing *Ingestor) Ingest(ctx context.Context, name string, data []byte) (document.Document, error) {
	start := time.Now()
	doc, err := ing.ingest(ctx, name, data)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ObserveIngest(result, time.Since(start))
	return doc, err
}

func (ing *Ingestor) ingest(ctx context.Context, name string, data []byte) (document.Document, error) {
	if ing.maxBytes > 0 && len(data) > ing.maxBytes {
		return document.Document{}, fmt.Errorf("%s: %w (%d bytes, limit %d)", name, ErrTooLarge, len(data), ing.maxBytes)
	}
	if _, err := filetype.RequirePDF(data); err != nil {
		return document.Document{}, fmt.Errorf("%s: %w", name, err)
	}

	// Cheap page-count preflight to reject over-limit documents before
	// any rasterization. A preflight parse error only disables the
	// early check; the renderer gets the final word on readability.
	if ing.maxPages > 0 {
		if n, err := api.PageCount(bytes.NewReader(data), nil); err != nil {
			log.Warn().Str("file", name).Err(err).Msg("page-count preflight failed")
		} else if n > ing.maxPages {
			return document.Document{}, fmt.Errorf("%s: %w (%d pages, limit %d)", name, ErrTooManyPages, n, ing.maxPages)
		}
	}

	doc, err := ing.renderer.Open(data)
	if err != nil {
		return document.Document{}, fmt.Errorf("%s: open pdf: %w", name, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return document.Document{}, fmt.Errorf("%s: document has no pages", name)
	}
	if ing.maxPages > 0 && total > ing.maxPages {
		return document.Document{}, fmt.Errorf("%s: %w (%d pages, limit %d)", name, ErrTooManyPages, total, ing.maxPages)
	}

	// Sequential on purpose: one decoded page buffer in flight keeps
	// peak memory flat for large documents.
	pages := make([]document.Page, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return document.Document{}, fmt.Errorf("%s: %w", name, err)
		}
		img, err := doc.Image(i)
		if err != nil {
			log.Warn().Str("file", name).Int("page", i+1).Err(err).Msg("page rasterization failed, omitting")
			metrics.IncPageRasterized("omitted")
			continue
		}
		metrics.IncPageRasterized("success")
		pages = append(pages, document.Page{Num: i + 1, Image: img})
	}
	if len(pages) == 0 {
		return document.Document{}, fmt.Errorf("%s: no page could be rasterized", name)
	}

	d := document.New(name, pages)
	log.Debug().
		Str("doc_id", d.ID).
		Str("file", name).
		Int("pages", len(pages)).
		Int("omitted", total-len(pages)).
		Msg("document ingested")
	return d, nil
}

// IngestBatch processes files sequentially. Entries fail
// independently: results arrive in input order, one per file, each
// carrying either the document or that file's error.
func (ing *Ingestor) IngestBatch(ctx context.Context, files []File) []Result {
	batchID := uuid.NewString()
	log.Info().Str("batch_id", batchID).Int("files", len(files)).Msg("ingesting batch")

	results := make([]Result, 0, len(files))
	for _, f := range files {
		doc, err := ing.Ingest(ctx, f.Name, f.Data)
		if err != nil {
			log.Error().Str("batch_id", batchID).Str("file", f.Name).Err(err).Msg("ingestion failed")
			results = append(results, Result{Name: f.Name, Err: err})
			continue
		}
		results = append(results, Result{Name: f.Name, Doc: doc})
	}
	return results
}
