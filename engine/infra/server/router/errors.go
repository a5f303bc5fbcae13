package router

import (
	"errors"
	"net/http"

	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/infra/uploads"
	"github.com/compozy/docchunk/engine/pipeline"
	"github.com/compozy/docchunk/engine/splitter"
)

// Error codes
const (
	ErrInternalCode          = "INTERNAL_ERROR"
	ErrBadRequestCode        = "BAD_REQUEST"
	ErrNotFoundCode          = "NOT_FOUND"
	ErrInvalidConfigCode     = "INVALID_CONFIG"
	ErrUnsupportedFormatCode = "UNSUPPORTED_FORMAT"
	ErrPayloadTooLargeCode   = "PAYLOAD_TOO_LARGE"
	ErrExtractionCode        = "EXTRACTION_FAILED"
	ErrEncodingCode          = "ENCODING_FAILED"
	ErrProcessingCode        = "PROCESSING_FAILED"
	ErrConflictCode          = "STATUS_CONFLICT"
)

// ProblemFor maps domain errors onto problem documents. Unknown errors become
// a 500 without leaking their message.
func ProblemFor(err error) *Problem {
	var (
		cfgErr   *splitter.ConfigurationError
		procErr  *pipeline.ProcessingError
		bytesErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &cfgErr):
		return &Problem{
			Status: http.StatusBadRequest,
			Code:   ErrInvalidConfigCode,
			Detail: err.Error(),
			Extras: map[string]any{"field": cfgErr.Field},
		}
	case errors.Is(err, pipeline.ErrUnsupportedFormat):
		return &Problem{
			Status: http.StatusBadRequest,
			Code:   ErrUnsupportedFormatCode,
			Detail: err.Error(),
			Extras: map[string]any{"supported_extensions": extract.SupportedExtensions()},
		}
	case errors.Is(err, uploads.ErrTooLarge), errors.As(err, &bytesErr):
		return &Problem{Status: http.StatusRequestEntityTooLarge, Code: ErrPayloadTooLargeCode, Detail: err.Error()}
	case errors.Is(err, document.ErrNotFound):
		return &Problem{Status: http.StatusNotFound, Code: ErrNotFoundCode, Detail: "document or chunk not found"}
	case errors.As(err, &procErr):
		return processingProblem(procErr)
	default:
		return &Problem{Status: http.StatusInternalServerError, Code: ErrInternalCode, Detail: "internal server error"}
	}
}

func processingProblem(err *pipeline.ProcessingError) *Problem {
	p := &Problem{
		Status: http.StatusInternalServerError,
		Code:   ErrProcessingCode,
		Detail: err.Err.Error(),
		Extras: map[string]any{"document_id": err.DocumentID},
	}
	switch {
	case errors.Is(err, extract.ErrEncoding):
		p.Status = http.StatusUnprocessableEntity
		p.Code = ErrEncodingCode
	case errors.Is(err, extract.ErrExtraction):
		p.Status = http.StatusUnprocessableEntity
		p.Code = ErrExtractionCode
	case errors.Is(err, document.ErrAlreadyTerminal):
		p.Status = http.StatusConflict
		p.Code = ErrConflictCode
	}
	return p
}
