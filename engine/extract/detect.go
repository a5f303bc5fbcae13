package extract

import (
	"github.com/gabriel-vasile/mimetype"
)

// Resolve picks the canonical content type for an upload. A recognized
// extension wins, then the declared type, then content sniffing of head.
func Resolve(filename, declared string, head []byte) string {
	if ct, ok := ContentTypeForExtension(Ext(filename)); ok {
		return ct
	}
	if ct := canonicalType(declared); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if len(head) == 0 {
		return MIMEPlain
	}
	return canonicalType(mimetype.Detect(head).String())
}
