package request

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/raysh454/hybridhttp/internal/model"
)

const defaultBlobFilename = "blob"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type formField struct {
	name     string
	value    string
	blob     *model.Blob
	filename string
}

// FormData is an ordered multipart body, appended to like the browser's
// FormData. Field names may repeat.
type FormData struct {
	fields []formField
}

func NewFormData() *FormData {
	return &FormData{}
}

// Append adds a plain string field.
func (f *FormData) Append(name, value string) {
	f.fields = append(f.fields, formField{name: name, value: value})
}

// AppendBlob adds a file field. An empty filename becomes "blob".
func (f *FormData) AppendBlob(name string, blob *model.Blob, filename string) {
	if filename == "" {
		filename = defaultBlobFilename
	}
	f.fields = append(f.fields, formField{name: name, blob: blob, filename: filename})
}

// Len returns the number of fields.
func (f *FormData) Len() int {
	return len(f.fields)
}

// Encode renders the multipart body and its Content-Type header value.
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	boundary := "----HybridHTTPFormBoundary" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	for _, field := range f.fields {
		if field.blob == nil {
			if err := w.WriteField(field.name, field.value); err != nil {
				return nil, "", fmt.Errorf("write field %q: %w", field.name, err)
			}
			continue
		}

		contentType := field.blob.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field.name), quoteEscaper.Replace(field.filename)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %q: %w", field.name, err)
		}
		if _, err := part.Write(field.blob.Data); err != nil {
			return nil, "", fmt.Errorf("write part %q: %w", field.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// formDataFromMap converts a decoded JSON object into FormData. Lists append
// one field per element; blobs become file fields.
func formDataFromMap(data map[string]any) *FormData {
	form := NewFormData()
	for _, key := range sortedKeys(data) {
		appendFormValue(form, key, data[key])
	}
	return form
}

func appendFormValue(form *FormData, key string, v any) {
	switch tv := v.(type) {
	case *model.Blob:
		form.AppendBlob(key, tv, "")
	case model.Blob:
		form.AppendBlob(key, &tv, "")
	case []any:
		for _, item := range tv {
			appendFormValue(form, key, item)
		}
	case []string:
		for _, item := range tv {
			form.Append(key, item)
		}
	default:
		form.Append(key, stringify(v))
	}
}
