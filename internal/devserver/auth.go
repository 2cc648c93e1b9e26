package devserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type ctxKey int

const accountKey ctxKey = 0

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return auth[len(prefix):]
}

// bearerAuth resolves the Authorization header against issued tokens and
// stores the account on the request context.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := bearerToken(r)
		if presented == "" {
			httpError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}

		s.mu.Lock()
		var acct *account
		for token, a := range s.tokens {
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1 {
				acct = a
				break
			}
		}
		s.mu.Unlock()

		if acct == nil {
			httpError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, acct)))
	})
}

func (s *Server) accountFor(r *http.Request) *account {
	if acct, ok := r.Context().Value(accountKey).(*account); ok {
		return acct
	}
	return &account{}
}
