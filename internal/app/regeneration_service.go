package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	corepuzzle "github.com/example/soup/internal/core/puzzle"
	"github.com/example/soup/internal/observability"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// resetConcurrency bounds parallel player resets.
const resetConcurrency = 8

// RegenerationServiceImpl implements the RegenerationService interface.
type RegenerationServiceImpl struct {
	repos     SessionRepos
	oracle    secondary.Oracle
	systemLog secondary.SystemLog
	cfg       SessionConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
	flight    singleflight.Group

	// run is shared by every caller waiting on the current flight and is
	// cancelled once the last of them gives up.
	runMu     sync.Mutex
	waiters   int
	runCtx    context.Context
	cancelRun context.CancelFunc
}

var _ primary.RegenerationService = (*RegenerationServiceImpl)(nil)

// NewRegenerationService creates a new RegenerationService with injected dependencies.
func NewRegenerationService(
	repos SessionRepos,
	oracle secondary.Oracle,
	systemLog secondary.SystemLog,
	cfg SessionConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *RegenerationServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegenerationServiceImpl{
		repos:     repos,
		oracle:    oracle,
		systemLog: systemLog,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Regenerate takes the generation lock, clears the session and installs a new puzzle.
// Concurrent calls within this process share one regeneration.
func (s *RegenerationServiceImpl) Regenerate(ctx context.Context, req primary.RegenerateRequest) (*primary.RegenerateResponse, error) {
	ctx = withActor(ctx, req.PlayerID, req.PlayerName)

	opts := corepuzzle.Options{
		Theme:      strings.TrimSpace(req.Theme),
		Genre:      strings.ToLower(req.Genre),
		Difficulty: strings.ToLower(req.Difficulty),
	}
	if err := corepuzzle.ValidateOptions(opts); err != nil {
		s.record(ctx, "warn", strings.ToUpper(err.Error()))
		return nil, denied(err.Error())
	}

	// Every caller is authorized on its own identity, including those that
	// end up sharing another caller's flight.
	status, err := s.repos.Status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game status: %w", err)
	}
	guard := corepuzzle.CanReset(corepuzzle.ResetContext{
		RequesterID: req.PlayerID,
		AdminID:     s.cfg.AdminID,
		Status:      corepuzzle.Status(status.Status),
	})
	if !guard.Allowed {
		s.metrics.ObserveRegeneration("denied")
		s.record(ctx, "warn", guard.Reason)
		return nil, denied(guard.Reason)
	}

	runCtx := s.joinRun(ctx)
	defer s.leaveRun()

	ch := s.flight.DoChan("regenerate", func() (any, error) {
		return s.regenerate(runCtx, req, opts)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return &primary.RegenerateResponse{Puzzle: res.Val.(*primary.Puzzle), Shared: res.Shared}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// joinRun registers a waiter and returns the context the shared flight runs
// under. It keeps the first waiter's values but none of its deadlines.
func (s *RegenerationServiceImpl) joinRun(ctx context.Context) context.Context {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.waiters == 0 {
		s.runCtx, s.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
	}
	s.waiters++
	return s.runCtx
}

func (s *RegenerationServiceImpl) leaveRun() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		s.cancelRun()
	}
}

func (s *RegenerationServiceImpl) regenerate(ctx context.Context, req primary.RegenerateRequest, opts corepuzzle.Options) (*primary.Puzzle, error) {
	now := s.cfg.Now()

	status, err := s.repos.Status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game status: %w", err)
	}

	// 1. Read the lock
	lock, err := s.repos.Lock.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation lock: %w", err)
	}
	guard := corepuzzle.CanRegenerate(corepuzzle.RegenerateContext{
		RequesterID:   req.PlayerID,
		RequesterName: req.PlayerName,
		AdminID:       s.cfg.AdminID,
		Status:        corepuzzle.Status(status.Status),
		Lock:          lockState(lock),
		Now:           now,
	})
	if !guard.Allowed {
		if corepuzzle.IsLockActive(lockState(lock), now) {
			s.metrics.ObserveLockContention()
		}
		s.metrics.ObserveRegeneration("denied")
		s.record(ctx, "warn", guard.Reason)
		return nil, denied(guard.Reason)
	}

	// 2. Acquire (advisory, unfenced)
	if err := s.repos.Lock.Acquire(ctx, req.PlayerName, now); err != nil {
		s.metrics.ObserveRegeneration("failed")
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	// 5. Release no matter how generation ends
	defer func() {
		if err := s.repos.Lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release generation lock", "holder", req.PlayerName, "error", err)
		}
	}()
	s.record(ctx, "info", "GENERATING NEW PUZZLE...")

	// 3. Clear the session
	if err := s.clearSession(ctx); err != nil {
		s.metrics.ObserveRegeneration("failed")
		s.record(ctx, "error", fmt.Sprintf("ERROR: %v", err))
		return nil, err
	}

	// 4. Generate and install
	generated, err := s.oracle.Generate(ctx, &secondary.GenerateRequest{
		Theme:      opts.Theme,
		Genre:      opts.Genre,
		Difficulty: opts.Difficulty,
		Persona:    s.cfg.Persona,
	})
	if err != nil {
		s.metrics.ObserveRegeneration("failed")
		s.record(ctx, "error", fmt.Sprintf("ERROR: %v", err))
		s.logger.Warn("puzzle generation failed", "holder", req.PlayerName, "error", err)
		return nil, fmt.Errorf("failed to generate puzzle: %w", err)
	}

	installedAt := s.cfg.Now()
	record := &secondary.PuzzleRecord{
		Title:       generated.Title,
		Surface:     generated.Surface,
		Truth:       generated.Truth,
		Tags:        generated.Tags,
		GeneratedBy: req.PlayerName,
		GeneratedAt: installedAt,
	}
	if err := s.repos.Puzzle.Install(ctx, record); err != nil {
		s.metrics.ObserveRegeneration("failed")
		return nil, fmt.Errorf("failed to install puzzle: %w", err)
	}
	// Submissions judged during generation may have moved the status; the new
	// puzzle always starts from zero.
	if err := s.repos.Status.Reset(ctx, installedAt); err != nil {
		return nil, fmt.Errorf("failed to reset game status: %w", err)
	}

	s.metrics.ObserveRegeneration("installed")
	s.record(ctx, "info", fmt.Sprintf("NEW PUZZLE LOADED: %s", record.Title))
	s.record(ctx, "info", corepuzzle.TagsLine(corepuzzle.Tags{
		Genre:      record.Tags.Genre,
		HasDeath:   record.Tags.HasDeath,
		Difficulty: record.Tags.Difficulty,
	}))
	s.logger.Info("puzzle installed", "title", record.Title, "by", req.PlayerName)

	return recordToPuzzle(record, corepuzzle.StatusPlaying, false), nil
}

// NewGame clears the session and resets the status without a new puzzle.
func (s *RegenerationServiceImpl) NewGame(ctx context.Context, req primary.NewGameRequest) error {
	ctx = withActor(ctx, req.PlayerID, req.PlayerName)

	status, err := s.repos.Status.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load game status: %w", err)
	}
	guard := corepuzzle.CanReset(corepuzzle.ResetContext{
		RequesterID: req.PlayerID,
		AdminID:     s.cfg.AdminID,
		Status:      corepuzzle.Status(status.Status),
	})
	if !guard.Allowed {
		s.record(ctx, "warn", guard.Reason)
		return denied(guard.Reason)
	}

	if err := s.clearSession(ctx); err != nil {
		return err
	}
	s.record(ctx, "info", "NEW GAME INITIALIZED. GOOD LUCK.")
	return nil
}

// clearSession empties the transcript and evidence, resets every player's
// ledger and restores the initial status.
func (s *RegenerationServiceImpl) clearSession(ctx context.Context) error {
	if err := s.repos.Transcript.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	if err := s.repos.Evidence.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear evidence: %w", err)
	}

	players, err := s.repos.Players.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resetConcurrency)
	for _, p := range players {
		id := p.ID
		g.Go(func() error {
			// A player deleted meanwhile has nothing to reset.
			if err := s.repos.Players.Reset(gctx, id); err != nil && !errors.Is(err, secondary.ErrNotFound) {
				return fmt.Errorf("failed to reset player %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.repos.Status.Reset(ctx, s.cfg.Now()); err != nil {
		return fmt.Errorf("failed to reset game status: %w", err)
	}
	return nil
}

func (s *RegenerationServiceImpl) record(ctx context.Context, level, message string) {
	if s.systemLog == nil {
		return
	}
	if err := s.systemLog.Record(ctx, level, message); err != nil {
		s.logger.Warn("failed to record system log line", "message", message, "error", err)
	}
}
