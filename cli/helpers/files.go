package helpers

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/compozy/docchunk/engine/extract"
	"github.com/spf13/afero"
)

const sniffBytes = 512

// InputFile is a local document read for extraction.
type InputFile struct {
	Name        string
	Data        []byte
	ContentType string
}

// ReadInputFile reads path from fs, refusing files larger than maxBytes, and
// resolves its content type from the extension or the leading bytes.
func ReadInputFile(fs afero.Fs, path string, maxBytes int64) (*InputFile, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, NewCliError("FILE_NOT_FOUND", "cannot read input file", err.Error())
	}
	if info.IsDir() {
		return nil, NewCliError("INVALID_INPUT", "input is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, NewCliError(
			"FILE_TOO_LARGE",
			"input file exceeds the size limit",
			fmt.Sprintf("%d > %d bytes", info.Size(), maxBytes),
		)
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, NewCliError("FILE_NOT_FOUND", "cannot read input file", err.Error())
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	head := data[:min(len(data), sniffBytes)]
	return &InputFile{Name: name, Data: data, ContentType: extract.Resolve(name, "", head)}, nil
}
