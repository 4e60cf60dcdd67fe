package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dlrodev92/my-portfolio-api/internal/storage"
	"github.com/go-playground/validator/v10"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrBadFileType  = errors.New("file type not allowed")
	ErrTooManyFiles = errors.New("too many files")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func DecodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func ValidationDetails(errs validator.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}

func ParseLimitOffset(values url.Values, defaultLimit, maxLimit int64) (int64, int64, error) {
	limit := defaultLimit
	offset := int64(0)

	rawLimit := strings.TrimSpace(values.Get("limit"))
	if rawLimit != "" {
		parsed, err := strconv.ParseInt(rawLimit, 10, 64)
		if err != nil || parsed <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		limit = parsed
	}

	rawOffset := strings.TrimSpace(values.Get("offset"))
	if rawOffset != "" {
		parsed, err := strconv.ParseInt(rawOffset, 10, 64)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = parsed
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return limit, offset, nil
}

// FormFiles buffers every upload under the given multipart field, enforcing
// the per-file size cap, the image MIME allowlist, and the field's file
// count limit before anything touches object storage.
func FormFiles(r *http.Request, field string, maxCount int, maxBytes int64) ([]storage.File, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > maxCount {
		return nil, ErrTooManyFiles
	}

	files := make([]storage.File, 0, len(headers))
	for _, h := range headers {
		f, err := readFormFile(h, maxBytes)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// FormFile returns the first upload under the field, or nil when absent.
func FormFile(r *http.Request, field string, maxBytes int64) (*storage.File, error) {
	files, err := FormFiles(r, field, 1, maxBytes)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return &files[0], nil
}

func readFormFile(h *multipart.FileHeader, maxBytes int64) (storage.File, error) {
	if h.Size > maxBytes {
		return storage.File{}, ErrFileTooLarge
	}
	contentType := h.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return storage.File{}, ErrBadFileType
	}

	src, err := h.Open()
	if err != nil {
		return storage.File{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return storage.File{}, err
	}
	if int64(len(data)) > maxBytes {
		return storage.File{}, ErrFileTooLarge
	}

	return storage.File{
		Name:        h.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
