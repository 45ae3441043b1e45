package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/netbill/isp-billing/pkg/errors"
)

// UploadedFile is an optional multipart file part.
type UploadedFile struct {
	Filename string
	File     multipart.File
}

// Close releases the underlying part.
func (u *UploadedFile) Close() error {
	if u == nil || u.File == nil {
		return nil
	}
	return u.File.Close()
}

// Reader exposes the file contents.
func (u *UploadedFile) Reader() io.Reader {
	return u.File
}

// ParseMultipartForm caps the request body at maxBytes and parses it.
func ParseMultipartForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	tooLarge := pkgerrors.New(pkgerrors.CodePayloadTooLarge, "upload too large").WithDetails(map[string]any{"max_bytes": maxBytes})
	if r.ContentLength > maxBytes {
		return tooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return tooLarge
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// OptionalFile returns the named file part, or nil when it was not sent.
func OptionalFile(r *http.Request, field string) (*UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload").WithDetails(map[string]any{"field": field})
	}
	if header.Size == 0 || strings.TrimSpace(header.Filename) == "" {
		_ = file.Close()
		return nil, nil
	}
	return &UploadedFile{Filename: header.Filename, File: file}, nil
}
