package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FormData is a multipart/form-data payload of plain fields and file parts.
type FormData struct {
	// Fields are plain form fields.
	Fields map[string]string
	// Files are file parts keyed by field name.
	Files []FileField
}

// FileField is a single file part of a multipart form.
type FileField struct {
	// FieldName is the form field name.
	FieldName string
	// FileName is the client-side file name reported to the server.
	FileName string
	// ContentType is the part's content type. Defaults to
	// application/octet-stream when empty.
	ContentType string
	// Content is the file content.
	Content io.Reader
}

// NewFormData creates an empty form.
func NewFormData() *FormData {
	return &FormData{Fields: make(map[string]string)}
}

// AddField adds a plain field and returns the receiver.
func (f *FormData) AddField(name, value string) *FormData {
	if f.Fields == nil {
		f.Fields = make(map[string]string)
	}
	f.Fields[name] = value
	return f
}

// AddFile adds a file part and returns the receiver.
func (f *FormData) AddFile(fieldName, fileName, contentType string, content io.Reader) *FormData {
	f.Files = append(f.Files, FileField{
		FieldName:   fieldName,
		FileName:    fileName,
		ContentType: contentType,
		Content:     content,
	})
	return f
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// encode renders the form into a multipart body and its content type.
func (f *FormData) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range f.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", name, err)
		}
	}

	for _, file := range f.Files {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.FieldName), escapeQuotes(file.FileName)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form part %q: %w", file.FieldName, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return nil, "", fmt.Errorf("write form part %q: %w", file.FieldName, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
