package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode/utf32"
)

const encodingUTF8 = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// chardet reports some charsets under names the WHATWG index does not know.
var charsetAliases = map[string]string{
	"gb-18030":   "gb18030",
	"ibm420_ltr": "",
	"ibm420_rtl": "",
	"ibm424_ltr": "",
	"ibm424_rtl": "",
}

type textExtractor struct {
	stripHTML bool
	policy    *bluemonday.Policy
}

func newTextExtractor(stripHTML bool) *textExtractor {
	return &textExtractor{stripHTML: stripHTML, policy: bluemonday.StrictPolicy()}
}

func (x *textExtractor) extract(_ context.Context, data []byte, contentType string) (string, Metadata, error) {
	decoded, err := decodeText(data)
	if err != nil {
		return "", nil, err
	}
	text := decoded.text
	meta := TextMetadata{Encoding: decoded.encoding, Confidence: decoded.confidence}
	if x.stripHTML && contentType == MIMEHTML {
		text = html.UnescapeString(x.policy.Sanitize(text))
		meta.HTMLStripped = true
	}
	meta.Lines = strings.Count(text, "\n") + 1
	return text, meta, nil
}

type decodedText struct {
	text       string
	encoding   string
	confidence float64
}

// decodeText returns data as UTF-8. Valid UTF-8 is taken as is; anything else
// goes through charset detection and is rejected when decoding is lossy.
func decodeText(data []byte) (decodedText, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return decodedText{text: string(data), encoding: encodingUTF8, confidence: 1}, nil
	}
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil || res.Charset == "" {
		return decodedText{}, &EncodingError{
			Encoding: encodingUTF8,
			Err:      errors.New("input is not valid UTF-8 and no charset was detected"),
		}
	}
	name := normalizeCharset(res.Charset)
	enc, err := lookupEncoding(name)
	if err != nil {
		return decodedText{}, &EncodingError{Encoding: res.Charset, Err: err}
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return decodedText{}, &EncodingError{Encoding: name, Err: err}
	}
	out = bytes.TrimPrefix(out, []byte("\uFEFF"))
	if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return decodedText{}, &EncodingError{Encoding: name, Err: errors.New("input contains bytes invalid for the detected charset")}
	}
	return decodedText{text: string(out), encoding: name, confidence: float64(res.Confidence) / 100}, nil
}

func normalizeCharset(name string) string {
	n := strings.ToLower(name)
	if alias, ok := charsetAliases[n]; ok {
		return alias
	}
	return n
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "":
		return nil, errors.New("unsupported charset")
	case encodingUTF8:
		return nil, errors.New("input is not valid UTF-8")
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	}
	enc, _ := charset.Lookup(name)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
	return enc, nil
}
