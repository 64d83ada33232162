package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"guardian-shield/internal/domain/services"
)

// Accepted upload MIME types per form field
var (
	audioMIMETypes = []string{"audio/mpeg", "audio/wav", "audio/mp4", "audio/x-m4a"}
	videoMIMETypes = []string{"video/mp4", "video/quicktime", "video/x-msvideo"}
)

// errNoFile is returned when the expected form field is missing
var errNoFile = fmt.Errorf("%w: no file provided", services.ErrInvalidInput)

// multipartMemory is how much of a form is buffered before spilling to disk
const multipartMemory = 32 << 20

type uploadPolicy struct {
	maxBytes int64
}

func newUploadPolicy(maxBytes int64) uploadPolicy {
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
	return uploadPolicy{maxBytes: maxBytes}
}

// upload is a received media file
type upload struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// receive reads the file in field, rejecting oversize bodies and MIME types
// outside allowed. The bytes are only read into memory when keep is set.
func (p uploadPolicy) receive(w http.ResponseWriter, r *http.Request, field string, allowed []string, keep bool) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", errPayloadTooLarge, p.maxBytes)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("%w: malformed multipart form", services.ErrInvalidInput)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	contentType := mediaType(header)
	if !slices.Contains(allowed, contentType) {
		return nil, fmt.Errorf("%w: file type %q", services.ErrUnsupportedContent, contentType)
	}

	up := &upload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
	}
	if keep {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		up.Data = data
	}
	return up, nil
}

func mediaType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
