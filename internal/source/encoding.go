package source

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEncoding is returned for a character encoding name that is not known.
var ErrEncoding = errors.New("unsupported encoding")

// LookupEncoding resolves an encoding name. The empty name means UTF-8.
// "latin-1" means ISO-8859-1, not the WHATWG alias for windows-1252.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "l1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrEncoding, name)
	}
	return enc, nil
}

// decode wraps r so that it yields UTF-8. A leading byte order mark is
// dropped and switches the decoder to the matching Unicode encoding; invalid
// input bytes become U+FFFD instead of failing the read.
func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
}
