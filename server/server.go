package server

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/29rl/task-manager-fullstack/internal/config"
	"github.com/29rl/task-manager-fullstack/tasks"
	"github.com/29rl/task-manager-fullstack/token"
	"github.com/29rl/task-manager-fullstack/users"
)

// Repos holds the storage dependencies for the Server.
type Repos struct {
	Users users.UserRepo
	Tasks tasks.Repo
}

// Server is the task-management REST API: token issuance and refresh,
// registration, profile, and owner-scoped task CRUD.
type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	repos    Repos
	tokens   *token.Manager
	validate *validator.Validate
	metrics  *Metrics
	logger   zerolog.Logger
}

func New(config config.Config, repos Repos, tokens *token.Manager) (*Server, error) {
	if repos.Users == nil {
		return nil, errors.New("[Server New] Users repo is required")
	}
	if repos.Tasks == nil {
		return nil, errors.New("[Server New] Tasks repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[Server New] token manager is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		repos:    repos,
		tokens:   tokens,
		validate: validator.New(),
		metrics:  NewMetrics(),
		logger:   log.With().Str("component", "server").Logger(),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			s.logger.Info().Str("path", parts[0]).Msg("route registered")
		}
	}
}
