package upload

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapregister/snapregister/internal/api"
	"github.com/snapregister/snapregister/internal/session"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newClient(t *testing.T, baseURL string) (*api.Client, *session.Session) {
	t.Helper()
	sess, err := session.New(session.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	return api.New(baseURL, sess, sess.Tokens, nil), sess
}

func parseParts(t *testing.T, contentType string, data []byte) (files map[string]string, fields map[string]string) {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("parsing content type: %v", err)
	}

	files = map[string]string{}
	fields = map[string]string{}

	r := multipart.NewReader(strings.NewReader(string(data)), params["boundary"])
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading part: %v", err)
		}
		content, _ := io.ReadAll(part)
		if part.FileName() != "" {
			files[part.FormName()] = string(content)
		} else {
			fields[part.FormName()] = string(content)
		}
	}
	return files, fields
}

func TestBuildBody_FileAndFields(t *testing.T) {
	path := writeFile(t, "receipt.jpg", "jpeg-bytes")

	body, err := BuildBody(
		[]Part{{Field: "receiptImage", Path: path}},
		map[string]string{"productId": "p-42", "note": "gift"},
	)
	if err != nil {
		t.Fatalf("BuildBody: %v", err)
	}

	if !strings.HasPrefix(body.ContentType, "multipart/form-data; boundary=") {
		t.Errorf("ContentType = %q, want multipart with boundary", body.ContentType)
	}

	files, fields := parseParts(t, body.ContentType, body.Data)
	if files["receiptImage"] != "jpeg-bytes" {
		t.Errorf("file part = %q, want file content", files["receiptImage"])
	}
	if fields["productId"] != "p-42" || fields["note"] != "gift" {
		t.Errorf("fields = %v, want productId and note", fields)
	}
}

func TestBuildBody_MissingFile(t *testing.T) {
	_, err := BuildBody([]Part{{Field: "file", Path: filepath.Join(t.TempDir(), "gone.jpg")}}, nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSend_DefaultFieldAndAuth(t *testing.T) {
	var gotAuth string
	var files map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		files, _ = parseParts(t, r.Header.Get("Content-Type"), body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"/uploads/abc.jpg"}`))
	}))
	defer srv.Close()

	c, sess := newClient(t, srv.URL)
	sess.Tokens.Set("upload-token")

	path := writeFile(t, "photo.jpg", "pixels")
	resp, err := Send(context.Background(), c, "/upload", File{Path: path}, nil, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}

	if gotAuth != "Bearer upload-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if files[DefaultField] != "pixels" {
		t.Errorf("file part under %q = %q, want file content", DefaultField, files[DefaultField])
	}
}

func TestSend_UnauthorizedClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, sess := newClient(t, srv.URL)
	sess.Tokens.Set("stale")

	path := writeFile(t, "photo.jpg", "pixels")
	_, err := Send(context.Background(), c, "/upload", File{Path: path}, nil, &api.RequestConfig{NoRetry: true})

	var authErr *api.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *api.AuthError", err)
	}
	if got := sess.Tokens.Get(); got != "" {
		t.Errorf("token after 401 = %q, want empty", got)
	}
}

func TestToStorage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"/uploads/d41d8cd9.jpg"}`))
	}))
	defer srv.Close()

	c, _ := newClient(t, srv.URL)
	path := writeFile(t, "photo.jpg", "pixels")

	url, err := ToStorage(context.Background(), c, File{Path: path}, nil)
	if err != nil {
		t.Fatalf("ToStorage: %v", err)
	}
	if url != "/uploads/d41d8cd9.jpg" {
		t.Errorf("url = %q, want server value", url)
	}
}
