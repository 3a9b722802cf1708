package web

import (
	"net/http"

	log "github.com/go-pkgz/lgr"
	"golang.org/x/crypto/bcrypt"
)

const authUser = "leontine"

// authMiddleware checks basic auth against the bcrypt password hash. Ping is always allowed.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
			log.Printf("[WARN] authentication failed for %s", r.RemoteAddr)
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="leontine"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
