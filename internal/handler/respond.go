package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxJSONBody = 1 << 20 // 1MB

	msgInvalidInputs = "Invalid inputs passed, please check your data"
)

var errImageTooLarge = errors.New("image too large")

type validationDetail struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type validationErrorResponse struct {
	Error   string             `json:"error"`
	Details []validationDetail `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// validate writes a 422 and returns false when req fails its struct rules.
func validate(w http.ResponseWriter, v *validator.Validate, req any) bool {
	err := v.Struct(req)
	if err == nil {
		return true
	}

	resp := validationErrorResponse{Error: msgInvalidInputs}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			resp.Details = append(resp.Details, validationDetail{Field: fe.Field(), Rule: fe.Tag()})
		}
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
	return false
}

// decodeJSON reads a size-limited JSON body into dst, writing the error response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart parses a multipart form whose uploaded image may be up to maxImage bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxImage int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxImage+maxJSONBody)
	if err := r.ParseMultipartForm(maxImage + maxJSONBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart form"))
		return false
	}
	return true
}

// formImage returns the first uploaded file found under one of fields, or nil if none was sent.
func formImage(r *http.Request, maxImage int64, fields ...string) ([]byte, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	for _, field := range fields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		return readFormFile(headers[0], maxImage)
	}
	return nil, nil
}

func readFormFile(fh *multipart.FileHeader, maxImage int64) ([]byte, error) {
	if fh.Size > maxImage {
		return nil, errImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImage+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxImage {
		return nil, errImageTooLarge
	}
	return data, nil
}

// formValue returns a pointer to the form value, or nil when the field was not sent.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
