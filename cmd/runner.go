package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/geo-martino/musify/internal/api"
	"github.com/geo-martino/musify/internal/cache"
	"github.com/geo-martino/musify/internal/match"
	"github.com/geo-martino/musify/internal/models"
	"github.com/geo-martino/musify/internal/shared"
	"github.com/geo-martino/musify/internal/spotify"
	"github.com/geo-martino/musify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       *api.OAuth
	store      cache.Store
	client     *spotify.Client
	matcher    *match.Matcher
	engine     *tasks.MatchEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      cache.Store
	Client     *spotify.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// The gateway stack is only built when Spotify credentials are configured;
// commands that need it report the missing credentials themselves.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if r.client == nil {
		r.buildGateway()
	}
	return r
}

// buildGateway wires the authorizer, rate limiter, response cache, and
// request handler into a catalog client.
func (r *Runner) buildGateway() {
	cfg := r.config

	auth, err := api.NewOAuth(cfg.Credentials.Spotify)
	if err != nil {
		r.logger.Debugf("spotify gateway not configured: %v", err)
		return
	}
	r.auth = auth

	if r.store == nil {
		r.store = r.openStore()
	}

	limiter := api.NewLimiter(
		cfg.Gateway.RequestsPerSecond,
		time.Duration(cfg.Gateway.BackoffBaseMS)*time.Millisecond,
		time.Duration(cfg.Gateway.BackoffCapSeconds)*time.Second,
	)

	handler := api.NewHandler(api.HandlerOpts{
		BaseURL:         spotify.BaseURL,
		Client:          r.httpClient,
		Auth:            auth,
		Limiter:         limiter,
		Store:           r.store,
		Shapes:          cacheShapes(cfg.Cache),
		Timeout:         time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
		NetworkRetries:  cfg.Gateway.NetworkRetries,
		ThrottleRetries: cfg.Gateway.ThrottleRetries,
		Logger:          r.logger,
	})

	r.client = spotify.NewClient(handler, r.logger)
}

// openStore opens the configured sqlite response cache, falling back to the
// in-memory store when persistence is unavailable.
func (r *Runner) openStore() cache.Store {
	cfg := r.config.Cache
	if !cfg.Enabled {
		return cache.NewMemory()
	}
	if cfg.Path == "" {
		r.logger.Warn("cache enabled without a path, using in-memory store")
		return cache.NewMemory()
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		r.logger.Warnf("failed to open cache database, using in-memory store: %v", err)
		return cache.NewMemory()
	}
	store, err := cache.NewSQLite(db, r.logger)
	if err != nil {
		r.logger.Warnf("failed to initialize cache schema, using in-memory store: %v", err)
		db.Close()
		return cache.NewMemory()
	}
	return store
}

// ensureEngine builds the matcher and engine on first use.
func (r *Runner) ensureEngine() error {
	if r.engine != nil {
		return nil
	}
	if r.client == nil {
		return fmt.Errorf("%w: set spotify client_id and client_secret in config.toml or the environment", shared.ErrMissingCredentials)
	}

	matcherConfig, err := match.ConfigFrom(r.config.Matcher)
	if err != nil {
		return err
	}

	r.matcher = match.New(r.client, matcherConfig, r.logger)
	r.engine = tasks.NewMatchEngine(r.matcher, r.logger)
	return nil
}

// SetLogger swaps the runner's logger, propagating it to freshly built
// components only.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// cacheShapes converts configured cache shapes to gateway shapes.
func cacheShapes(cfg shared.CacheConfig) []api.Shape {
	defaultTTL := time.Duration(cfg.DefaultTTLHours) * time.Hour
	shapes := make([]api.Shape, 0, len(cfg.Shapes))
	for _, s := range cfg.Shapes {
		ttl := time.Duration(s.TTLHours) * time.Hour
		if ttl == 0 {
			ttl = defaultTTL
		}
		shapes = append(shapes, api.Shape{Method: s.Method, Prefix: s.Prefix, TTL: ttl})
	}
	return shapes
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, matchCommand, playlistCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadLibrary reads local collections from a JSON file. The file holds
// either an array of collections or a flat array of tracks, which become a
// single unnamed collection.
func loadLibrary(path string) ([]models.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}

	var collections []models.Collection
	if err := json.Unmarshal(data, &collections); err == nil && len(collections) > 0 && collections[0].Tracks != nil {
		return collections, nil
	}

	var tracks []models.LocalTrack
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("%w: %s is neither a collection list nor a track list", shared.ErrInvalidInput, path)
	}
	return []models.Collection{{Name: "library", Tracks: tracks}}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
