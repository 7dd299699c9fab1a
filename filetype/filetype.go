// Package filetype validates in-memory payloads by magic bytes, so a
// mislabeled upload or a lying server never reaches the PDF or image
// decoders.
package filetype

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the coarse classification the rest of the system cares about.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindJPEG  Kind = "jpeg"
	KindPNG   Kind = "png"
	KindOther Kind = "other"
)

// ErrWrongType marks payloads whose detected type does not match what
// the operation expects.
var ErrWrongType = errors.New("unexpected file type")

// Info contains detected file type information.
type Info struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Description string
}

// IsPDF reports whether the payload is a PDF document.
func (i Info) IsPDF() bool { return i.Kind == KindPDF }

// IsImage reports whether the payload is a supported background image
// format (JPEG or PNG).
func (i Info) IsImage() bool { return i.Kind == KindJPEG || i.Kind == KindPNG }

// Detect classifies a payload using magic bytes, not filename.
func Detect(data []byte) Info {
	mtype := mimetype.Detect(data)

	info := Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}

	switch {
	case mtype.Is("application/pdf"):
		info.Kind = KindPDF
		info.Description = "PDF document"
	case mtype.Is("image/jpeg"):
		info.Kind = KindJPEG
		info.Description = "JPEG image"
	case mtype.Is("image/png"):
		info.Kind = KindPNG
		info.Description = "PNG image"
	default:
		info.Kind = KindOther
		info.Description = fmt.Sprintf("unsupported file type: %s", info.MIMEType)
	}

	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("kind", string(info.Kind)).Msg("detected file type")

	return info
}

// RequirePDF returns the detected info, or ErrWrongType when the
// payload is not a PDF.
func RequirePDF(data []byte) (Info, error) {
	info := Detect(data)
	if !info.IsPDF() {
		return info, fmt.Errorf("%w: expected a PDF document, got %s", ErrWrongType, info.MIMEType)
	}
	return info, nil
}

// RequireImage returns the detected info, or ErrWrongType when the
// payload is neither JPEG nor PNG.
func RequireImage(data []byte) (Info, error) {
	info := Detect(data)
	if !info.IsImage() {
		return info, fmt.Errorf("%w: expected a JPEG or PNG image, got %s", ErrWrongType, info.MIMEType)
	}
	return info, nil
}
