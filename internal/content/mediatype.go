package content

import (
	"fmt"
	"mime"
	"strings"
)

// MediaType is a canonical lowercase "type/subtype" pair without parameters.
type MediaType struct {
	Type    string
	Subtype string
}

// Well-known media types.
var (
	TextPlain    = MediaType{"text", "plain"}
	TextMarkdown = MediaType{"text", "markdown"}
	TextHTML     = MediaType{"text", "html"}
	TextJSON     = MediaType{"text", "json"}
	TextCSS      = MediaType{"text", "css"}
	TextXML      = MediaType{"text", "xml"}

	ImagePNG  = MediaType{"image", "png"}
	ImageJPEG = MediaType{"image", "jpeg"}
	ImageGIF  = MediaType{"image", "gif"}
	ImageTIFF = MediaType{"image", "tiff"}
	ImageSVG  = MediaType{"image", "svg+xml"}
	ImageWebP = MediaType{"image", "webp"}

	ApplicationJSON        = MediaType{"application", "json"}
	ApplicationPDF         = MediaType{"application", "pdf"}
	ApplicationZip         = MediaType{"application", "zip"}
	ApplicationOctetStream = MediaType{"application", "octet-stream"}
	ApplicationWasm        = MediaType{"application", "wasm"}
	ApplicationJavaScript  = MediaType{"application", "javascript"}
	ApplicationRSS         = MediaType{"application", "rss+xml"}
	ApplicationAtom        = MediaType{"application", "atom+xml"}
	ApplicationFontWoff    = MediaType{"application", "font-woff"}

	// SQLite3 is the media type of a serialized database image.
	SQLite3 = MediaType{"application", "vnd.sqlite3"}
)

// ParseMediaType parses s into its canonical form. Parameters such as
// "; charset=utf-8" are accepted and dropped; type and subtype are
// lowercased.
func ParseMediaType(s string) (MediaType, error) {
	full, _, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, fmt.Errorf("parse media type %q: %w", s, err)
	}
	typ, sub, ok := strings.Cut(full, "/")
	if !ok || typ == "" || sub == "" || strings.Contains(sub, "/") {
		return MediaType{}, fmt.Errorf("parse media type %q: want type/subtype", s)
	}
	return MediaType{Type: typ, Subtype: sub}, nil
}

// MustParseMediaType is like ParseMediaType but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseMediaType(s string) MediaType {
	mt, err := ParseMediaType(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// String returns "type/subtype", or "" for the zero MediaType.
func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	return m.Type + "/" + m.Subtype
}

// IsZero reports whether m is the zero MediaType.
func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

// IsText reports whether m is a text/* type.
func (m MediaType) IsText() bool {
	return m.Type == "text"
}

// MarshalText implements encoding.TextMarshaler.
func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MediaType) UnmarshalText(b []byte) error {
	mt, err := ParseMediaType(string(b))
	if err != nil {
		return err
	}
	*m = mt
	return nil
}
