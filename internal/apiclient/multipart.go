package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// File is an uploaded file forwarded to the business API.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Form is a multipart request body. Fields keep insertion order so the API
// receives them the same way a browser form would send them.
type Form struct {
	fields [][2]string
	files  []File
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// Attach appends a file part.
func (f *Form) Attach(file File) *Form {
	f.files = append(f.files, file)
	return f
}

// HasFiles reports whether any file part is present.
func (f *Form) HasFiles() bool { return f != nil && len(f.files) > 0 }

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Filename))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// DoMultipart sends form as multipart/form-data and decodes a JSON response.
func (c *Client) DoMultipart(ctx context.Context, method, path string, form *Form, out any) error {
	if form == nil {
		form = &Form{}
	}
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, body, contentType, out)
}
