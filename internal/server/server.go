package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	api "github.com/talentlink/talentlink-backend/internal/api/http"
	auth "github.com/talentlink/talentlink-backend/internal/auth/middleware"
	"github.com/talentlink/talentlink-backend/internal/config"
	"github.com/talentlink/talentlink-backend/internal/rbac"
	"github.com/talentlink/talentlink-backend/internal/users"
)

type Deps struct {
	Tokens *auth.TokenService
	Users  *users.Store
	Logger *log.Logger
}

// New assembles the router for cfg: middleware in configured order, then
// authentication, then the routes of every installed app.
func New(cfg config.Config, deps Deps) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	if (cfg.HasApp(config.AppAuth) || cfg.HasApp(config.AppCore)) && deps.Tokens == nil {
		return nil, errors.New("server: token service required")
	}
	if cfg.HasApp(config.AppCore) && deps.Users == nil {
		return nil, errors.New("server: user store required")
	}

	mws, err := pipeline(cfg, deps.Logger)
	if err != nil {
		return nil, err
	}
	requirePerms, err := rbac.Require(cfg.PermissionClasses...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	r := chi.NewRouter()
	r.Use(mws...)
	for _, class := range cfg.AuthenticationClasses {
		switch class {
		case "JWTAuthentication":
			if deps.Tokens == nil {
				return nil, errors.New("server: JWTAuthentication needs a token service")
			}
			r.Use(auth.JWTMiddleware(deps.Tokens))
		default:
			return nil, fmt.Errorf("server: unknown authentication class %q", class)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	if cfg.HasApp(config.AppAuth) {
		authn := authenticatorOrNil(deps.Users)
		if authn == nil {
			return nil, errors.New("server: auth app needs a user store")
		}
		r.Post("/api/token/", auth.ObtainPairHandler(deps.Tokens, authn))
		r.Post("/api/token/refresh/", auth.RefreshHandler(deps.Tokens))
		r.Post("/api/token/verify/", auth.VerifyHandler(deps.Tokens))
		if cfg.HasApp(config.AppTokenBlacklist) {
			if !deps.Tokens.BlacklistEnabled() {
				return nil, errors.New("server: token_blacklist app needs a blacklist store")
			}
			r.Post("/api/token/blacklist/", auth.BlacklistHandler(deps.Tokens))
		}
	}

	if cfg.HasApp(config.AppCore) {
		errs := api.Errors{Debug: cfg.Debug}
		r.Post("/api/register/", api.RegisterHandler(deps.Users, errs))
		r.Group(func(pr chi.Router) {
			pr.Use(requirePerms)
			pr.Get("/api/me/", api.MeHandler(deps.Users, errs))
			pr.Post("/api/me/password/", api.ChangePasswordHandler(deps.Users, errs))
		})
	}

	if cfg.HasApp(config.AppStaticFiles) {
		prefix := "/" + strings.Trim(cfg.Static.URL, "/") + "/"
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Static.Root)))
		r.Get(prefix+"*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	return r, nil
}

func authenticatorOrNil(s *users.Store) auth.Authenticator {
	if s == nil {
		return nil
	}
	return s
}
