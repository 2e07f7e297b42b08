package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/29rl/task-manager-fullstack/internal/config"
	"github.com/29rl/task-manager-fullstack/internal/postgres"
	"github.com/29rl/task-manager-fullstack/server"
	faketaskrepo "github.com/29rl/task-manager-fullstack/tasks/repofake"
	"github.com/29rl/task-manager-fullstack/tasks/taskpg"
	"github.com/29rl/task-manager-fullstack/token"
	"github.com/29rl/task-manager-fullstack/token/refresh"
	"github.com/29rl/task-manager-fullstack/token/refresh/refreshpg"
	refreshrepofake "github.com/29rl/task-manager-fullstack/token/refresh/repofake"
	fakeuserrepo "github.com/29rl/task-manager-fullstack/users/repofake"
	"github.com/29rl/task-manager-fullstack/users/userpg"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	repos, refreshRepo, cleanup, err := buildRepos(c)
	if err != nil {
		return err
	}
	defer cleanup()

	tokens := token.New(
		repos.Users,
		refresh.NewManager(refreshRepo, c.GetRefreshTokenLength()),
		token.NewHMACSigner(c.GetTokenSigningKey()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithIssuer(c.GetBaseURL()),
	)

	handler, err := server.New(c, repos, tokens)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildRepos wires Postgres-backed repositories when DATABASE_URL is set and
// in-memory ones otherwise, so the server runs standalone in development.
func buildRepos(c config.Config) (server.Repos, refresh.Repo, func(), error) {
	databaseURL := c.GetDatabaseURL()
	if databaseURL == "" {
		log.Info().Msg("no database configured, using in-memory stores")
		repos := server.Repos{
			Users: fakeuserrepo.NewFakeUserRepo(),
			Tasks: faketaskrepo.NewFakeTaskRepo(),
		}
		return repos, refreshrepofake.NewFakeRefreshTokenRepo(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		return server.Repos{}, nil, nil, fmt.Errorf("postgres.Connect: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return server.Repos{}, nil, nil, fmt.Errorf("postgres.Migrate: %w", err)
	}

	log.Info().Msg("connected to postgres")
	repos := server.Repos{
		Users: userpg.NewPostgresUserRepo(pool),
		Tasks: taskpg.NewPostgresTaskRepo(pool),
	}
	return repos, refreshpg.NewPostgresRefreshTokenRepo(pool), pool.Close, nil
}

func configureLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
