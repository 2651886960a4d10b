package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"github.com/talentlink/talentlink-backend/internal/config"
)

type middlewareFunc = func(http.Handler) http.Handler

// pipeline resolves cfg.Middleware into handlers, outermost first.
func pipeline(cfg config.Config, logger *log.Logger) ([]middlewareFunc, error) {
	out := make([]middlewareFunc, 0, len(cfg.Middleware))
	for _, name := range cfg.Middleware {
		mw, err := namedMiddleware(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, mw)
	}
	return out, nil
}

func namedMiddleware(name string, cfg config.Config, logger *log.Logger) (middlewareFunc, error) {
	switch name {
	case "cors":
		return cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           300,
		}), nil
	case "common":
		return chi.Chain(
			middleware.RequestID,
			middleware.RealIP,
			middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}),
			middleware.Recoverer,
		).Handler, nil
	case "security":
		return securityHeaders(!cfg.Debug), nil
	case "hosts":
		return allowedHosts(cfg.AllowedHosts), nil
	case "clickjacking":
		return frameDeny, nil
	case "compress":
		return middleware.Compress(5), nil
	}
	return nil, fmt.Errorf("server: unknown middleware %q", name)
}

func securityHeaders(hsts bool) middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "same-origin")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func frameDeny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// allowedHosts rejects requests whose Host is not listed. "*" allows all
// hosts; ".example.com" allows example.com and any subdomain.
func allowedHosts(patterns []string) middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(patterns, r.Host) {
				http.Error(w, "invalid host header", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(patterns []string, hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(strings.Trim(host, "[]"), "."))
	if host == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(p)
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case strings.Trim(p, "[]") == host:
			return true
		}
	}
	return false
}
