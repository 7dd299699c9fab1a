package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/background"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/collage"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/config"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/document"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/fetch"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/filetype"
	"github.com/micahKingVinciworks/pdf-marketing-image-app/ingest"
)

// rendererStub opens any PDF-typed payload as a three page document
// with solid-color pages tinted by the payload, so documents built
// from different payloads produce distinguishable collages. Payloads
// containing "boom" fail to open.
type rendererStub struct{}

func (rendererStub) Open(data []byte) (ingest.Doc, error) {
	if bytes.Contains(data, []byte("boom")) {
		return nil, errors.New("malformed xref table")
	}
	var seed byte
	if len(data) > 0 {
		seed = data[len(data)-1]
	}
	return &docStub{pages: 3, seed: seed}, nil
}

type docStub struct {
	pages int
	seed  byte
}

func (d *docStub) NumPage() int { return d.pages }

func (d *docStub) Image(page int) (image.Image, error) {
	shade := uint8(255 - 40*page)
	return imaging.New(40, 60, color.NRGBA{R: d.seed, G: shade, B: 255 - d.seed, A: 255}), nil
}

func (d *docStub) Close() error { return nil }

func pdfBytes(tag string) []byte {
	return []byte("%PDF-1.5\n" + tag)
}

func newTestFetcher() *fetch.Fetcher {
	return fetch.New(config.FetchConfig{Timeout: 5 * time.Second, UserAgent: "session-test/1.0"})
}

func newTestSession() *Session {
	return New(Dependencies{
		Ingestor: ingest.NewWithRenderer(rendererStub{}, config.IngestConfig{MaxPages: 200, MaxFileMB: 100}),
		Fetcher:  newTestFetcher(),
	})
}

func collageParams(w, ov, tilt float64) collage.Params {
	return collage.Params{PageWidth: w, Overlap: ov, TiltDegrees: tilt}
}

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// soloCollage renders a single document in a fresh session and returns
// its PNG.
func soloCollage(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{{Name: name, Data: data}})
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate(%q): %v", name, err)
	}
	out, ok := s.Output(document.OutputName(name))
	if !ok {
		t.Fatalf("missing output for %q", name)
	}
	return out
}

func TestSessionAddFilesAndGenerate(t *testing.T) {
	s := newTestSession()

	results := s.AddFiles(context.Background(), []ingest.File{
		{Name: "report.pdf", Data: pdfBytes("a")},
		{Name: "notes.txt", Data: []byte("plain text")},
		{Name: "brochure.pdf", Data: pdfBytes("b")},
	})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("valid files failed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, filetype.ErrWrongType) {
		t.Fatalf("results[1].Err = %v, want ErrWrongType", results[1].Err)
	}

	docs := s.Documents()
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}
	if docs[0].Name != "report.pdf" || docs[1].Name != "brochure.pdf" {
		t.Fatalf("document names = %q, %q", docs[0].Name, docs[1].Name)
	}

	names, err := s.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"report-marketing.png", "brochure-marketing.png"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("output names mismatch (-want +got):\n%s", diff)
	}

	for _, name := range want {
		data, ok := s.Output(name)
		if !ok {
			t.Fatalf("missing output %q", name)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode %q: %v", name, err)
		}
		if cfg.Width != 1280 || cfg.Height != 720 {
			t.Fatalf("output %q is %dx%d, want 1280x720", name, cfg.Width, cfg.Height)
		}
	}
	if got := len(s.Outputs()); got != 2 {
		t.Fatalf("outputs = %d, want 2", got)
	}
}

func TestSessionGenerateDeterministic(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{{Name: "deck.pdf", Data: pdfBytes("x")}})

	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	first, _ := s.Output("deck-marketing.png")

	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	second, _ := s.Output("deck-marketing.png")

	if !bytes.Equal(first, second) {
		t.Fatal("repeated Generate produced different bytes for unchanged inputs")
	}
}

func TestSessionGenerateReflectsParams(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{{Name: "deck.pdf", Data: pdfBytes("x")}})

	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before, _ := s.Output("deck-marketing.png")

	s.SetParams(collageParams(500, 0, 0))
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate after SetParams: %v", err)
	}
	after, _ := s.Output("deck-marketing.png")

	if bytes.Equal(before, after) {
		t.Fatal("changed parameters did not change the regenerated output")
	}
}

func TestSessionRemove(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{
		{Name: "report.pdf", Data: pdfBytes("a")},
		{Name: "brochure.pdf", Data: pdfBytes("b")},
	})
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s.Remove(0)
	docs := s.Documents()
	if len(docs) != 1 || docs[0].Name != "brochure.pdf" {
		t.Fatalf("after Remove(0): %d docs, first %q", len(docs), docs[0].Name)
	}
	if _, ok := s.Output("report-marketing.png"); ok {
		t.Fatal("removed document's output still present")
	}
	if _, ok := s.Output("brochure-marketing.png"); !ok {
		t.Fatal("surviving document's output was discarded")
	}

	// Out-of-range removals are no-ops.
	s.Remove(7)
	s.Remove(-1)
	if len(s.Documents()) != 1 {
		t.Fatal("out-of-range Remove changed the document list")
	}

	s.Remove(0)
	if len(s.Documents()) != 0 {
		t.Fatal("session not empty after removing the last document")
	}
	if len(s.Outputs()) != 0 {
		t.Fatal("outputs not empty after removing the last document")
	}
	s.Remove(0) // repeated removal on an empty session
}

func TestSessionDuplicateNames(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{
		{Name: "report.pdf", Data: pdfBytes("a")},
		{Name: "report.pdf", Data: pdfBytes("b")},
	})

	names, err := s.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"report-marketing.png", "report-marketing.png"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("output names mismatch (-want +got):\n%s", diff)
	}
	if got := len(s.Outputs()); got != 1 {
		t.Fatalf("outputs = %d, want 1 shared entry", got)
	}

	// Same-named documents write the same key; the later one wins.
	first := soloCollage(t, "report.pdf", pdfBytes("a"))
	second := soloCollage(t, "report.pdf", pdfBytes("b"))
	if bytes.Equal(first, second) {
		t.Fatal("collages from different payloads are identical")
	}
	shared, _ := s.Output("report-marketing.png")
	if !bytes.Equal(shared, second) {
		t.Fatal("shared output is not the later document's collage")
	}

	// Removing either duplicate drops the shared output; the survivor
	// restores it on the next Generate.
	s.Remove(0)
	if _, ok := s.Output("report-marketing.png"); ok {
		t.Fatal("shared output survived removing one duplicate")
	}
	docs := s.Documents()
	if len(docs) != 1 || docs[0].Name != "report.pdf" {
		t.Fatalf("after Remove(0): %d docs, first %q", len(docs), docs[0].Name)
	}
	if _, err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate after Remove: %v", err)
	}
	regenerated, ok := s.Output("report-marketing.png")
	if !ok {
		t.Fatal("surviving duplicate did not regenerate the output")
	}
	if !bytes.Equal(regenerated, second) {
		t.Fatal("regenerated output is not the surviving document's collage")
	}
}

func TestSessionSetSelection(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{{Name: "deck.pdf", Data: pdfBytes("x")}})

	if err := s.SetSelection(0, document.SlotCenter, 3); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	if got := s.Documents()[0].Selection.Center; got != 3 {
		t.Fatalf("Center = %d, want 3", got)
	}

	if err := s.SetSelection(0, document.SlotRight, 0); err != nil {
		t.Fatalf("clearing a slot: %v", err)
	}
	if got := s.Documents()[0].Selection.Right; got != 0 {
		t.Fatalf("Right = %d, want 0", got)
	}

	if err := s.SetSelection(0, document.SlotLeft, 9); err == nil {
		t.Fatal("selecting a page the document does not have succeeded")
	}
	if err := s.SetSelection(4, document.SlotLeft, 1); err == nil {
		t.Fatal("out-of-range document index succeeded")
	}
}

func TestSessionSetParamsClamps(t *testing.T) {
	s := newTestSession()

	got := s.SetParams(collageParams(1000, -5, 90))
	want := collageParams(600, 0, 45)
	if got != want {
		t.Fatalf("SetParams returned %+v, want %+v", got, want)
	}
	if s.Params() != want {
		t.Fatalf("Params() = %+v, want %+v", s.Params(), want)
	}
}

func TestSessionBackground(t *testing.T) {
	s := newTestSession()

	custom := encodeTestPNG(t, imaging.New(20, 10, color.NRGBA{R: 200, A: 255}))
	if err := s.SetBackground(custom); err != nil {
		t.Fatalf("SetBackground: %v", err)
	}
	if s.Background() == background.Default() {
		t.Fatal("custom background did not replace the default")
	}

	if err := s.SetBackground([]byte("not an image")); err == nil {
		t.Fatal("non-image payload accepted as background")
	}
	if !errors.Is(s.SetBackground(pdfBytes("x")), filetype.ErrWrongType) {
		t.Fatal("pdf payload accepted as background")
	}

	s.ResetBackground()
	if s.Background() != background.Default() {
		t.Fatal("ResetBackground did not restore the default")
	}
}

func TestSessionAddURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/q3-report.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdfBytes("remote"))
	}))
	defer srv.Close()

	s := newTestSession()
	doc, err := s.AddURL(context.Background(), srv.URL+"/files/q3-report.pdf")
	if err != nil {
		t.Fatalf("AddURL: %v", err)
	}
	if doc.Name != "q3-report.pdf" {
		t.Fatalf("doc.Name = %q, want %q", doc.Name, "q3-report.pdf")
	}
	if doc.PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", doc.PageCount())
	}
	if len(s.Documents()) != 1 {
		t.Fatalf("documents = %d, want 1", len(s.Documents()))
	}

	if _, err := s.AddURL(context.Background(), srv.URL+"/files/missing.pdf"); err == nil {
		t.Fatal("AddURL succeeded for a missing file")
	}
	if len(s.Documents()) != 1 {
		t.Fatal("failed AddURL changed the document list")
	}
}

func TestSessionGenerateCancelled(t *testing.T) {
	s := newTestSession()
	s.AddFiles(context.Background(), []ingest.File{{Name: "deck.pdf", Data: pdfBytes("x")}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	names, err := s.Generate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate error = %v, want context.Canceled", err)
	}
	if len(names) != 0 {
		t.Fatalf("cancelled Generate produced outputs: %v", names)
	}
}

func TestNameFromURL(t *testing.T) {
	cases := []struct {
		rawURL string
		want   string
	}{
		{"https://cdn.example.com/docs/q3.pdf", "q3.pdf"},
		{"https://cdn.example.com/docs/q3.pdf?token=abc", "q3.pdf"},
		{"s3://reports/2024/summary.pdf", "summary.pdf"},
		{"file:///tmp/brief.pdf", "brief.pdf"},
		{"/var/data/deck.pdf", "deck.pdf"},
		{"https://example.com/", "document.pdf"},
		{"", "document.pdf"},
	}
	for _, tc := range cases {
		if got := nameFromURL(tc.rawURL); got != tc.want {
			t.Errorf("nameFromURL(%q) = %q, want %q", tc.rawURL, got, tc.want)
		}
	}
}
