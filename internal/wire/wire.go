// Package wire provides dependency injection for the soup client.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/soup/internal/adapters/badger"
	cliadapter "github.com/example/soup/internal/adapters/cli"
	"github.com/example/soup/internal/adapters/memstore"
	"github.com/example/soup/internal/adapters/persistence"
	"github.com/example/soup/internal/adapters/sqlite"
	"github.com/example/soup/internal/app"
	"github.com/example/soup/internal/config"
	"github.com/example/soup/internal/db"
	"github.com/example/soup/internal/observability"
	"github.com/example/soup/internal/oracle"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// Services is one fully wired client.
type Services struct {
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *observability.Metrics
	Session      primary.SessionService
	Regeneration primary.RegenerationService
	Presence     primary.PresenceService
	Log          primary.LogService

	store  secondary.DocumentStore
	logDB  *sql.DB
	closed bool
}

// New wires a client from cfg. Operator logs go to logOut.
func New(cfg *config.Config, logOut io.Writer) (*Services, error) {
	logger, err := observability.NewLogger(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	logPath := cfg.Log.Path
	if cfg.Store.Driver == config.DriverMemory {
		logPath = db.MemoryPath
	}
	logDB, err := db.Open(logPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open system log: %w", err)
	}
	systemLog := sqlite.NewSystemLogRepository(logDB)

	// Create repository adapters (secondary ports) over the shared store
	repos := app.SessionRepos{
		Players:    persistence.NewPlayerRepository(store),
		Puzzle:     persistence.NewPuzzleRepository(store),
		Status:     persistence.NewStatusRepository(store),
		Lock:       persistence.NewLockRepository(store),
		Evidence:   persistence.NewEvidenceRepository(store),
		Transcript: persistence.NewTranscriptRepository(store),
	}
	gm := newOracle(cfg, logger, metrics)
	sessionCfg := app.SessionConfig{
		AdminID:        cfg.Game.AdminID,
		Persona:        cfg.Game.Persona,
		PresenceWindow: cfg.Game.PresenceWindow,
	}

	executor := app.NewEffectExecutor(repos, systemLog, logger)

	return &Services{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Session:      app.NewSessionService(repos, gm, persistence.NewChangeFeed(store), executor, systemLog, sessionCfg, logger, metrics),
		Regeneration: app.NewRegenerationService(repos, gm, systemLog, sessionCfg, logger, metrics),
		Presence:     app.NewPresenceService(repos.Players, sessionCfg),
		Log:          app.NewLogService(systemLog),
		store:        store,
		logDB:        logDB,
	}, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (secondary.DocumentStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memstore.New(), nil
	case config.DriverBadger:
		bcfg := badger.DefaultConfig(cfg.Store.Path)
		bcfg.Logger = logger
		store, err := badger.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newOracle(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) secondary.Oracle {
	if cfg.OfflineOracle() {
		logger.Warn("no oracle API key configured, using the offline oracle")
		return oracle.Offline{}
	}
	client := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey)
	return oracle.NewGateway(client, oracle.Config{
		Model:          cfg.Oracle.Model,
		Fanout:         cfg.Oracle.Fanout,
		AttemptTimeout: cfg.Oracle.Timeout,
	}, logger, metrics)
}

// Close releases the store and the system log database.
func (s *Services) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.store.Close(), s.logDB.Close())
}

// SessionAdapter returns a new SessionAdapter writing to out.
func (s *Services) SessionAdapter(out io.Writer) *cliadapter.SessionAdapter {
	return cliadapter.NewSessionAdapter(s.Session, out)
}

// GameAdapter returns a new GameAdapter writing to out.
func (s *Services) GameAdapter(out io.Writer) *cliadapter.GameAdapter {
	return cliadapter.NewGameAdapter(s.Regeneration, s.Presence, s.Log, out)
}

var (
	services *Services
	cfgDir   string
	once     sync.Once
)

// SetDir overrides the soup home directory used by Default.
// Must be called before the first Default.
func SetDir(dir string) {
	cfgDir = dir
}

// Dir returns the soup home directory in effect.
func Dir() (string, error) {
	if cfgDir != "" {
		return cfgDir, nil
	}
	return config.Dir()
}

// Default returns the singleton client wired from the configuration on disk.
func Default() *Services {
	once.Do(initServices)
	return services
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	dir, err := Dir()
	if err != nil {
		log.Fatalf("failed to resolve config directory: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	services, err = New(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
}

// Loaded returns the singleton client if Default has already built it.
func Loaded() *Services {
	return services
}
