package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snapregister/snapregister/internal/api"
	"github.com/snapregister/snapregister/internal/session"
)

func newService(t *testing.T, baseURL string) (*Service, *session.Session) {
	t.Helper()
	sess, err := session.New(session.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	client := api.New(baseURL, sess, sess.Tokens, &api.Options{MaxAttempts: 1})
	return NewService(client, sess), sess
}

func TestLogin_StoresTokenAndSkipsAuthHeader(t *testing.T) {
	var gotAuth string
	var gotCreds map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotCreds)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"fresh-token","user":{"id":"u1","email":"a@b.c","name":"Ada"}}`))
	}))
	defer srv.Close()

	s, sess := newService(t, srv.URL)
	sess.Tokens.Set("old-token")

	user, err := s.Login(context.Background(), "a@b.c", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if gotAuth != "" {
		t.Errorf("Authorization on login = %q, want empty", gotAuth)
	}
	if gotCreds["email"] != "a@b.c" || gotCreds["password"] != "hunter2" {
		t.Errorf("credentials = %v", gotCreds)
	}
	if user == nil || user.ID != "u1" {
		t.Errorf("user = %+v, want u1", user)
	}
	if got := sess.Tokens.Get(); got != "fresh-token" {
		t.Errorf("stored token = %q, want fresh-token", got)
	}
}

func TestLogin_ThenAuthenticatedCall(t *testing.T) {
	var productAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			w.Write([]byte(`{"token":"session-token","user":{"id":"u1"}}`))
		case "/products":
			productAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, sess := newService(t, srv.URL)
	if _, err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	client := api.New(srv.URL, sess, sess.Tokens, &api.Options{MaxAttempts: 1})
	if _, err := client.Get(context.Background(), "/products", nil); err != nil {
		t.Fatalf("Get /products: %v", err)
	}

	if productAuth != "Bearer session-token" {
		t.Errorf("Authorization = %q, want token from login", productAuth)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user":{"id":"u1"}}`))
	}))
	defer srv.Close()

	s, sess := newService(t, srv.URL)
	if _, err := s.Login(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatal("expected error when token missing from response")
	}
	if got := sess.Tokens.Get(); got != "" {
		t.Errorf("token = %q, want empty after failed login", got)
	}
}

func TestLogout_ClearsSessionEvenWhenServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s, sess := newService(t, srv.URL)
	sess.Tokens.Set("tok")

	s.Logout(context.Background())

	if got := sess.Tokens.Get(); got != "" {
		t.Errorf("token after logout = %q, want empty", got)
	}
}

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","email":"a@b.c","name":"Ada"}`))
	}))
	defer srv.Close()

	s, sess := newService(t, srv.URL)
	sess.Tokens.Set("tok")

	u, err := s.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.Name != "Ada" {
		t.Errorf("Name = %q, want Ada", u.Name)
	}
}
