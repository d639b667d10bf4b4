package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/brianndofor/mrq/internal/config"
	"github.com/brianndofor/mrq/internal/diff"
	"github.com/brianndofor/mrq/internal/enhance"
	"github.com/brianndofor/mrq/internal/gitlab"
	"github.com/brianndofor/mrq/internal/identity"
	"github.com/rs/zerolog"
)

const mockBaseURL = "https://gitlab.example.com"

type appKey struct{}

type App struct {
	Config     config.Config
	RepoConfig config.RepoConfig
	GitLab     *gitlab.Client
	Identity   *identity.Resolver
	Enhancer   *enhance.Service
	Summarizer *diff.Summarizer
	Exec       ExecRunner
	Log        zerolog.Logger
}

func withApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

func getApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return app, nil
}

func initApp(configPath string, debug bool) (*App, error) {
	merged, repoCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(merged.Log.Level, debug)
	if err != nil {
		return nil, err
	}

	var httpClient *http.Client
	var runner ExecRunner = RealExecRunner{}
	if mockMode() {
		fixtures := os.Getenv("MRQ_MOCK_DIR")
		if fixtures == "" {
			fixtures = filepath.Join("testdata", "gitlab")
		}
		httpClient = &http.Client{Transport: gitlab.NewFixtureTransport(fixtures)}
		merged.GitLab.BaseURL = mockBaseURL
		merged.GitLab.Token = "mock-token"
		runner = FakeExecRunner{}
	}

	client, err := gitlab.NewClient(merged.GitLab.BaseURL, merged.GitLab.Token, httpClient)
	if err != nil {
		return nil, err
	}
	summarizer, err := diff.NewSummarizer(repoCfg.Diff.Exclude...)
	if err != nil {
		return nil, fmt.Errorf("repo config diff.exclude: %w", err)
	}
	resolver := identity.NewResolver(client, log)

	return &App{
		Config:     merged,
		RepoConfig: repoCfg,
		GitLab:     client,
		Identity:   resolver,
		Enhancer: enhance.NewService(client, resolver, enhance.Options{
			Concurrency: merged.Enhance.Concurrency,
			Summarizer:  summarizer,
			Log:         log,
		}),
		Summarizer: summarizer,
		Exec:       runner,
		Log:        log,
	}, nil
}

func mockMode() bool {
	return os.Getenv("MRQ_MOCK") == "1"
}

// newLogger writes to stderr so command output stays parseable.
func newLogger(level string, debug bool) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log.level %q: %w", level, err)
	}
	if debug {
		parsed = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger(), nil
}

// now honours MRQ_NOW so relative ages are reproducible.
func now() time.Time {
	if value := os.Getenv("MRQ_NOW"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err == nil {
			return parsed
		}
	}
	return time.Now()
}
