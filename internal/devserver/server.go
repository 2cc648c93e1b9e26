// Package devserver is a local stand-in for the SnapRegister backend: the
// auth, upload, and warranty-analysis routes with canned extraction results.
// It exists so the CLI and the client packages can be exercised end to end
// without the real service.
package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const sessionCookie = "snapregister_session"

// slotPartNames are the multipart fields the analysis route accepts, in the
// order the client sends them.
var slotPartNames = []string{"serialNumberImage", "warrantyCardImage", "receiptImage", "productImage"}

type account struct {
	ID       string
	Email    string
	Name     string
	Password string
}

// Server holds the in-memory account and token state for one dev session.
type Server struct {
	maxUploadBytes int64
	logger         *slog.Logger

	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]*account // by bearer token
}

// New creates a Server. maxUploadBytes caps each uploaded part; <= 0 uses
// 10 MiB.
func New(maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Server{
		maxUploadBytes: maxUploadBytes,
		logger:         slog.Default(),
		accounts:       make(map[string]*account),
		tokens:         make(map[string]*account),
	}
}

// Handler returns the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.bearerAuth)
		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/logout", s.handleLogout)
		r.Post("/upload", s.handleUpload)
		r.Post("/warranty/analyze", s.handleAnalyze)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		httpError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[creds.Email]; exists {
		s.mu.Unlock()
		httpError(w, http.StatusConflict, "account already exists")
		return
	}
	acct := &account{
		ID:       uuid.NewString(),
		Email:    creds.Email,
		Name:     creds.Name,
		Password: creds.Password,
	}
	s.accounts[creds.Email] = acct
	token := uuid.NewString()
	s.tokens[token] = acct
	s.mu.Unlock()

	s.issueSession(w)
	writeJSON(w, http.StatusCreated, authPayload(token, acct))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[creds.Email]
	if ok && acct.Password != creds.Password {
		ok = false
	}
	if !ok && creds.Email != "" && creds.Password != "" {
		// Dev convenience: unknown accounts are created on first login.
		acct = &account{ID: uuid.NewString(), Email: creds.Email, Password: creds.Password}
		s.accounts[creds.Email] = acct
		ok = true
	}
	if !ok {
		s.mu.Unlock()
		httpError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = acct
	s.mu.Unlock()

	s.issueSession(w)
	writeJSON(w, http.StatusOK, authPayload(token, acct))
}

func authPayload(token string, acct *account) map[string]any {
	return map[string]any{
		"token": token,
		"user": map[string]string{
			"id":    acct.ID,
			"email": acct.Email,
			"name":  acct.Name,
		},
	}
}

func (s *Server) issueSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := s.accountFor(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"id":    acct.ID,
		"email": acct.Email,
		"name":  acct.Name,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	if header.Size > s.maxUploadBytes {
		httpError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d bytes", s.maxUploadBytes))
		return
	}

	ext := ""
	if i := strings.LastIndex(header.Filename, "."); i >= 0 {
		ext = header.Filename[i:]
	}
	url := "/uploads/" + uuid.NewString() + ext
	s.logger.Debug("stored upload", "name", header.Filename, "size", header.Size, "url", url)

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(4 * s.maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	received := map[string]uploadedDoc{}
	for _, name := range slotPartNames {
		doc, ok, err := s.readPart(r, name)
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		if ok {
			received[name] = doc
		}
	}

	if len(received) == 0 {
		httpError(w, http.StatusBadRequest, "at least one image is required")
		return
	}

	acct := s.accountFor(r)
	analysis := s.stubAnalysis(received, acct)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    analysis,
	})
}

func (s *Server) stubAnalysis(received map[string]uploadedDoc, acct *account) map[string]any {
	confidence := "low"
	switch {
	case len(received) >= 3:
		confidence = "high"
	case len(received) == 2:
		confidence = "medium"
	}

	info := ""
	for name, doc := range received {
		if doc.Text != "" {
			info = fmt.Sprintf("extracted from %s: %s", name, doc.Text)
			break
		}
	}

	return map[string]any{
		"brand":           "Acme",
		"model":           "X200",
		"serialNumber":    "SN-0042",
		"purchaseDate":    "2026-01-15",
		"warrantyPeriod":  "24 months",
		"warrantyEndDate": "2028-01-15",
		"retailer":        "Example Electronics",
		"price":           "499.00",
		"confidence":      confidence,
		"additionalInfo":  info,
		"extractedAt":     time.Now().UTC().Format(time.RFC3339),
		"userId":          acct.ID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
