// Package document holds the in-memory model shared by ingestion and
// composition: rasterized pages, per-document slot selections and the
// naming rule for composite outputs.
package document

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Slot is one of the three fixed collage positions.
type Slot string

const (
	SlotLeft   Slot = "left"
	SlotCenter Slot = "center"
	SlotRight  Slot = "right"
)

// Slots lists all slots in draw order: sides first, center last.
var Slots = []Slot{SlotLeft, SlotRight, SlotCenter}

// Page is a single rasterized page of a source document.
type Page struct {
	Num   int // 1-based position in the source document
	Image image.Image
}

// Selection assigns a page number to each collage slot.
// Zero means the slot is empty and will be skipped when drawing.
type Selection struct {
	Left   int
	Center int
	Right  int
}

// Page returns the page number assigned to slot, zero if empty.
func (s Selection) Page(slot Slot) int {
	switch slot {
	case SlotLeft:
		return s.Left
	case SlotCenter:
		return s.Center
	case SlotRight:
		return s.Right
	}
	return 0
}

// WithPage returns a copy of the selection with slot assigned to num.
// Unknown slots leave the selection unchanged.
func (s Selection) WithPage(slot Slot, num int) Selection {
	switch slot {
	case SlotLeft:
		s.Left = num
	case SlotCenter:
		s.Center = num
	case SlotRight:
		s.Right = num
	}
	return s
}

// IsEmpty reports whether no slot has a page assigned.
func (s Selection) IsEmpty() bool {
	return s.Left == 0 && s.Center == 0 && s.Right == 0
}

// DefaultSelection seeds the slots for a freshly ingested document with
// n pages: page 1 in the center, page 2 on the left and page 3 on the
// right, each clamped down to the last existing page for short documents.
func DefaultSelection(n int) Selection {
	if n <= 0 {
		return Selection{}
	}
	sel := Selection{Left: 1, Center: 1, Right: 1}
	if n >= 2 {
		sel.Left = 2
		sel.Right = 2
	}
	if n >= 3 {
		sel.Right = 3
	}
	return sel
}

// Document is one ingested source file: its rasterized pages in page
// order and the current slot selection. Selections never reference
// pages of another document.
type Document struct {
	ID        string
	Name      string
	Pages     []Page
	Selection Selection
}

// New builds a document with a fresh ID and the default selection.
// The default rule works on list positions; rasterization may have
// omitted single pages, so positions are mapped onto the actual page
// numbers to keep the selection valid even when numbering is sparse.
func New(name string, pages []Page) Document {
	sel := DefaultSelection(len(pages))
	num := func(pos int) int {
		if pos == 0 {
			return 0
		}
		return pages[pos-1].Num
	}
	return Document{
		ID:        uuid.NewString(),
		Name:      name,
		Pages:     pages,
		Selection: Selection{Left: num(sel.Left), Center: num(sel.Center), Right: num(sel.Right)},
	}
}

// PageCount returns the number of rasterized pages.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// Page looks up a page by its 1-based number. Page numbers may be
// sparse when single pages failed to rasterize, so this scans rather
// than indexes.
func (d Document) Page(num int) (Page, bool) {
	for _, p := range d.Pages {
		if p.Num == num {
			return p, true
		}
	}
	return Page{}, false
}

// ValidateSelection checks that every occupied slot references a page
// present in this document.
func (d Document) ValidateSelection() error {
	for _, slot := range Slots {
		num := d.Selection.Page(slot)
		if num == 0 {
			continue
		}
		if _, ok := d.Page(num); !ok {
			return fmt.Errorf("document %q: %s slot references missing page %d", d.Name, slot, num)
		}
	}
	return nil
}

// OutputName derives the composite file name from a source document
// name by replacing its extension: "report.pdf" -> "report-marketing.png".
func OutputName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "-marketing.png"
}
