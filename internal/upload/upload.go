// Package upload builds multipart/form-data payloads from local files and
// sends them through the api client, inheriting its auth, timeout, and retry
// behavior.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"

	"github.com/snapregister/snapregister/internal/api"
)

// DefaultField is the form field name used when a File does not specify one.
const DefaultField = "file"

// Part is one file entry in a multipart body.
type Part struct {
	// Field is the form field name.
	Field string
	// Path is the local file to read.
	Path string
	// Name is the file name reported to the server; defaults to the base
	// name of Path.
	Name string
}

// File describes a single upload through Send.
type File struct {
	Path  string
	Name  string
	Field string
}

// BuildBody assembles a multipart body with one part per file, followed by
// one part per extra field. Field parts are written in sorted key order so
// the payload is deterministic. The files are read fully here, once; retries
// of the resulting request reuse the same bytes.
func BuildBody(parts []Part, fields map[string]string) (*api.MultipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		name := p.Name
		if name == "" {
			name = filepath.Base(p.Path)
		}

		f, err := os.Open(p.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", p.Path, err)
		}

		fw, err := w.CreateFormFile(p.Field, name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("creating form part %s: %w", p.Field, err)
		}
		if _, err := io.Copy(fw, f); err != nil {
			f.Close()
			return nil, fmt.Errorf("reading %s: %w", p.Path, err)
		}
		f.Close()
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	return &api.MultipartBody{
		ContentType: w.FormDataContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Send uploads a single file plus optional extra string fields to endpoint.
// Errors follow the api client's taxonomy; a 401 clears the session token
// there before this returns.
func Send(ctx context.Context, c *api.Client, endpoint string, f File, extra map[string]string, cfg *api.RequestConfig) (*api.Response, error) {
	field := f.Field
	if field == "" {
		field = DefaultField
	}

	body, err := BuildBody([]Part{{Field: field, Path: f.Path, Name: f.Name}}, extra)
	if err != nil {
		return nil, err
	}

	return c.Post(ctx, endpoint, body, cfg)
}

// ToStorage sends the file to the generic upload endpoint and returns the
// URL the server stored it under.
func ToStorage(ctx context.Context, c *api.Client, f File, extra map[string]string) (string, error) {
	resp, err := Send(ctx, c, "/upload", f, extra, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := resp.Decode(&result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return result.URL, nil
}
