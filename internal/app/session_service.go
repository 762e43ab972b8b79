package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/soup/internal/core/effects"
	"github.com/example/soup/internal/core/ledger"
	"github.com/example/soup/internal/core/presence"
	corepuzzle "github.com/example/soup/internal/core/puzzle"
	"github.com/example/soup/internal/core/submission"
	"github.com/example/soup/internal/observability"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// TranscriptWindow is how many transcript entries State returns.
const TranscriptWindow = 50

// SessionServiceImpl implements the SessionService interface for one client.
type SessionServiceImpl struct {
	repos     SessionRepos
	oracle    secondary.Oracle
	feed      secondary.ChangeFeed
	executor  EffectExecutor
	systemLog secondary.SystemLog
	cfg       SessionConfig
	logger    *slog.Logger
	metrics   *observability.Metrics
}

var _ primary.SessionService = (*SessionServiceImpl)(nil)

// NewSessionService creates a new SessionService with injected dependencies.
func NewSessionService(
	repos SessionRepos,
	oracle secondary.Oracle,
	feed secondary.ChangeFeed,
	executor EffectExecutor,
	systemLog secondary.SystemLog,
	cfg SessionConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *SessionServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionServiceImpl{
		repos:     repos,
		oracle:    oracle,
		feed:      feed,
		executor:  executor,
		systemLog: systemLog,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Join registers the player under a display name not held by another online player.
func (s *SessionServiceImpl) Join(ctx context.Context, req primary.JoinRequest) (*primary.JoinResponse, error) {
	now := s.cfg.Now()
	name := strings.TrimSpace(req.Name)
	ctx = withActor(ctx, req.PlayerID, name)

	if err := s.claimName(ctx, req.PlayerID, name, now); err != nil {
		return nil, err
	}

	record, err := s.repos.Players.Get(ctx, req.PlayerID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		initial := ledger.InitialEntry()
		record = &secondary.PlayerRecord{
			ID:          req.PlayerID,
			Score:       initial.Score,
			QueryBudget: initial.Budget,
			JoinedAt:    now,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	record.Name = name
	record.LastSeenAt = now

	if err := s.repos.Players.Register(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}
	s.record(ctx, "info", fmt.Sprintf("%s initialized connection.", name))
	s.logger.Info("player joined", "player", req.PlayerID, "name", name)

	return &primary.JoinResponse{Player: recordToPlayer(record)}, nil
}

// Heartbeat refreshes the player's liveness, re-registering a missing record.
func (s *SessionServiceImpl) Heartbeat(ctx context.Context, req primary.HeartbeatRequest) (*primary.HeartbeatResponse, error) {
	ctx = withActor(ctx, req.PlayerID, req.Name)
	now := s.cfg.Now()

	// A record about to be recreated must not come back under a name another
	// online player has taken meanwhile.
	_, err := s.repos.Players.Get(ctx, req.PlayerID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
		if err := s.claimName(ctx, req.PlayerID, req.Name, now); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	restored, err := s.repos.Players.Heartbeat(ctx, req.PlayerID, req.Name, now)
	if err != nil {
		return nil, err
	}
	if restored {
		s.record(ctx, "warn", "CONNECTION RESTORED.")
		s.logger.Info("player record restored", "player", req.PlayerID)
	}
	return &primary.HeartbeatResponse{Restored: restored}, nil
}

// claimName denies a display name held by another online player.
func (s *SessionServiceImpl) claimName(ctx context.Context, playerID, name string, now time.Time) error {
	records, err := s.repos.Players.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}
	guard := presence.CanClaimName(presence.ClaimContext{
		PlayerID: playerID,
		Name:     name,
		Players:  recordsToPresence(records),
		Now:      now,
		Window:   s.cfg.PresenceWindow,
	})
	if !guard.Allowed {
		s.record(ctx, "warn", guard.Reason)
		return denied(guard.Reason)
	}
	return nil
}

// Submit runs one query, solve attempt or reserved command end-to-end.
func (s *SessionServiceImpl) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	now := s.cfg.Now()

	player, err := s.repos.Players.Get(ctx, req.PlayerID)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, s.deny(withActor(ctx, req.PlayerID, ""), "", "IDENTITY NOT REGISTERED. JOIN FIRST.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	ctx = withActor(ctx, player.ID, player.Name)

	if submission.IsReservedCommand(req.Input) {
		return s.skip(ctx, player, now)
	}

	mode := submission.ModeQuery
	if req.Mode != "" {
		parsed, ok := submission.ParseMode(req.Mode)
		if !ok {
			return nil, s.deny(ctx, "", fmt.Sprintf("UNKNOWN MODE %q", req.Mode))
		}
		mode = parsed
	}

	status, err := s.repos.Status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game status: %w", err)
	}

	// CREATED: local gates, no I/O beyond the system log on denial
	guard := submission.CanSubmit(submission.SubmitContext{
		PlayerID:    player.ID,
		Input:       req.Input,
		Mode:        mode,
		GameStatus:  corepuzzle.Status(status.Status),
		Budget:      player.QueryBudget,
		LastQueryAt: player.LastQueryAt,
		Now:         now,
	})
	if !guard.Allowed {
		return nil, s.deny(ctx, mode, guard.Reason)
	}

	active, err := s.activePuzzle(ctx)
	if err != nil {
		return nil, err
	}
	evidence, err := s.repos.Evidence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	transcript, err := s.repos.Transcript.Recent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	// OPTIMISTIC_POSTED
	entryID, err := s.repos.Transcript.Append(ctx, &secondary.TranscriptRecord{
		Text:      req.Input,
		Sender:    player.Name,
		SenderID:  player.ID,
		Kind:      submission.KindFor(mode),
		Status:    submission.EntryPending,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post submission: %w", err)
	}

	verdict, err := s.oracle.Judge(ctx, &secondary.JudgeRequest{
		Surface:      active.Surface,
		Truth:        active.Truth,
		Input:        req.Input,
		Mode:         string(mode),
		History:      toOracleHistory(transcript),
		Evidence:     evidenceTexts(evidence),
		Completeness: status.Completeness,
		Persona:      s.cfg.Persona,
	})
	if err != nil {
		return nil, s.fail(ctx, mode, entryID, err)
	}

	// JUDGED: re-read the status so the clamp runs against the freshest value
	current, err := s.repos.Status.Get(ctx)
	if err != nil {
		return nil, s.fail(ctx, mode, entryID, fmt.Errorf("failed to reload game status: %w", err))
	}

	plan := submission.PlanVerdict(submission.VerdictPlanInput{
		PlayerID:           player.ID,
		PlayerName:         player.Name,
		Mode:               mode,
		EntryID:            entryID,
		Verdict:            toCoreVerdict(verdict),
		StoredCompleteness: current.Completeness,
		Truth:              active.Truth,
		Now:                s.cfg.Now(),
	})
	if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
		return nil, s.fail(ctx, mode, entryID, err)
	}

	// APPLIED
	s.metrics.ObserveSubmission(string(mode), string(submission.StateApplied))
	s.logger.Debug("submission applied",
		"player", player.ID, "mode", mode, "delta", plan.ScoreDelta,
		"completeness", plan.Completeness, "filtered", plan.Filtered, "finished", plan.Finished)

	resp := &primary.SubmitResponse{
		State:        string(submission.StateApplied),
		EntryID:      entryID,
		Answer:       verdict.Answer,
		FlavorText:   verdict.FlavorText,
		Filtered:     plan.Filtered,
		Correct:      verdict.IsCorrect && !plan.Filtered,
		Accuracy:     verdict.Accuracy,
		Missing:      verdict.MissingElements,
		ScoreDelta:   plan.ScoreDelta,
		Completeness: plan.Completeness,
		Finished:     plan.Finished,
		Winner:       plan.Winner,
	}
	if len(plan.EvidenceOps) > 0 {
		resp.Evidence = plan.EvidenceOps[0].Data.(effects.EvidenceData).Text
	}
	return resp, nil
}

func (s *SessionServiceImpl) skip(ctx context.Context, player *secondary.PlayerRecord, now time.Time) (*primary.SubmitResponse, error) {
	guard := submission.CanSkip(submission.SkipContext{RequesterID: player.ID, AdminID: s.cfg.AdminID})
	plan := submission.PlanSkip(guard, player.Name, now)

	if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
		return nil, fmt.Errorf("failed to apply skip: %w", err)
	}
	if !plan.Allowed {
		s.metrics.ObserveSubmission("SKIP", string(submission.StateDenied))
		return nil, denied(guard.Reason)
	}

	s.metrics.ObserveSubmission("SKIP", string(submission.StateApplied))
	s.logger.Info("game skipped", "player", player.ID)
	return &primary.SubmitResponse{
		State:    string(submission.StateApplied),
		Finished: true,
		Winner:   plan.Winner,
		Skipped:  true,
	}, nil
}

// deny records a local rejection and returns it as a DeniedError.
func (s *SessionServiceImpl) deny(ctx context.Context, mode submission.Mode, reason string) error {
	s.record(ctx, "warn", reason)
	s.metrics.ObserveSubmission(string(mode), string(submission.StateDenied))
	return denied(reason)
}

// fail marks the optimistic entry failed. Budget, score and completeness are untouched.
func (s *SessionServiceImpl) fail(ctx context.Context, mode submission.Mode, entryID string, cause error) error {
	if err := s.repos.Transcript.SetStatus(ctx, entryID, submission.EntryFailed); err != nil {
		s.logger.Warn("failed to mark submission failed", "entry", entryID, "error", err)
	}
	s.record(ctx, "error", fmt.Sprintf("TRANSMISSION ERROR: %v", cause))
	s.metrics.ObserveSubmission(string(mode), string(submission.StateFailed))
	s.logger.Warn("submission failed", "entry", entryID, "mode", mode, "error", cause)
	return fmt.Errorf("submission failed: %w", cause)
}

// record writes a system log line; failures only reach the operator log.
func (s *SessionServiceImpl) record(ctx context.Context, level, message string) {
	if s.systemLog == nil {
		return
	}
	if err := s.systemLog.Record(ctx, level, message); err != nil {
		s.logger.Warn("failed to record system log line", "message", message, "error", err)
	}
}

// activePuzzle returns the installed puzzle, or the demo puzzle when none is installed.
func (s *SessionServiceImpl) activePuzzle(ctx context.Context) (*secondary.PuzzleRecord, error) {
	p, err := s.repos.Puzzle.Get(ctx)
	if errors.Is(err, secondary.ErrNotFound) {
		return demoRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzle: %w", err)
	}
	return p, nil
}

// State returns a snapshot of the shared session.
func (s *SessionServiceImpl) State(ctx context.Context) (*primary.SessionState, error) {
	now := s.cfg.Now()

	status, err := s.repos.Status.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load game status: %w", err)
	}
	p, err := s.repos.Puzzle.Get(ctx)
	demo := false
	if errors.Is(err, secondary.ErrNotFound) {
		p, demo = demoRecord(), true
	} else if err != nil {
		return nil, fmt.Errorf("failed to load puzzle: %w", err)
	}
	lock, err := s.repos.Lock.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation lock: %w", err)
	}
	evidence, err := s.repos.Evidence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	transcript, err := s.repos.Transcript.Recent(ctx, TranscriptWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	players, err := s.repos.Players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	state := &primary.SessionState{
		Puzzle: recordToPuzzle(p, corepuzzle.Status(status.Status), demo),
		Status: &primary.GameStatus{
			Status:       status.Status,
			Completeness: status.Completeness,
			Winner:       status.Winner,
			UpdatedAt:    status.UpdatedAt,
		},
		Lock: &primary.GenerationLock{
			Held:       lock.Held,
			Holder:     lock.Holder,
			AcquiredAt: lock.AcquiredAt,
			Stale:      lock.Held && corepuzzle.IsLockStale(lockState(lock), now),
		},
		Roster: membersToRoster(presence.Roster(recordsToPresence(players), now, s.cfg.PresenceWindow)),
	}
	for _, e := range evidence {
		state.Evidence = append(state.Evidence, &primary.Evidence{ID: e.ID, Text: e.Text, UnlockedBy: e.UnlockedBy})
	}
	for _, t := range transcript {
		state.Transcript = append(state.Transcript, &primary.TranscriptEntry{
			ID:        t.ID,
			Text:      t.Text,
			Sender:    t.Sender,
			SenderID:  t.SenderID,
			Kind:      t.Kind,
			Status:    t.Status,
			Tone:      t.Tone,
			CreatedAt: t.CreatedAt,
		})
	}
	return state, nil
}

// Watch delivers shared-state changes to fn until ctx is done.
func (s *SessionServiceImpl) Watch(ctx context.Context, fn func(primary.ChangeEvent)) error {
	return s.feed.Watch(ctx, func(c secondary.ChangeRecord) {
		fn(primary.ChangeEvent{Key: c.Key, Kind: c.Kind, Deleted: c.Deleted})
	})
}

// Helper methods

func toOracleHistory(transcript []*secondary.TranscriptRecord) []secondary.OracleMessage {
	entries := make([]submission.HistoryEntry, len(transcript))
	for i, t := range transcript {
		entries[i] = submission.HistoryEntry{Text: t.Text, SenderID: t.SenderID, Status: t.Status}
	}
	history := submission.BuildHistory(entries)
	msgs := make([]secondary.OracleMessage, len(history))
	for i, h := range history {
		msgs[i] = secondary.OracleMessage{Role: h.Role, Content: h.Content}
	}
	return msgs
}

func evidenceTexts(items []*secondary.EvidenceRecord) []string {
	texts := make([]string, len(items))
	for i, e := range items {
		texts[i] = e.Text
	}
	return texts
}

func toCoreVerdict(v *secondary.Verdict) submission.Verdict {
	return submission.Verdict{
		Answer:          v.Answer,
		FlavorText:      v.FlavorText,
		ScoreDelta:      v.ScoreDelta,
		NewEvidence:     v.NewEvidence,
		Completeness:    v.Completeness,
		IsFiltered:      v.IsFiltered,
		IsCorrect:       v.IsCorrect,
		Accuracy:        v.Accuracy,
		MissingElements: v.MissingElements,
	}
}

func lockState(l *secondary.LockRecord) corepuzzle.LockState {
	return corepuzzle.LockState{Held: l.Held, Holder: l.Holder, AcquiredAt: l.AcquiredAt}
}

func demoRecord() *secondary.PuzzleRecord {
	d := corepuzzle.Demo
	return &secondary.PuzzleRecord{
		Title:   d.Title,
		Surface: d.Surface,
		Truth:   d.Truth,
		Tags: secondary.PuzzleTags{
			Genre:      d.Tags.Genre,
			HasDeath:   d.Tags.HasDeath,
			Difficulty: d.Tags.Difficulty,
		},
		GeneratedBy: d.GeneratedBy,
	}
}

// recordToPuzzle converts a stored puzzle, withholding the truth until the game is finished.
func recordToPuzzle(r *secondary.PuzzleRecord, status corepuzzle.Status, demo bool) *primary.Puzzle {
	view := corepuzzle.Redacted(corepuzzle.Puzzle{Truth: r.Truth}, status)
	return &primary.Puzzle{
		Title:       r.Title,
		Surface:     r.Surface,
		Truth:       view.Truth,
		Genre:       r.Tags.Genre,
		HasDeath:    r.Tags.HasDeath,
		Difficulty:  r.Tags.Difficulty,
		GeneratedBy: r.GeneratedBy,
		GeneratedAt: r.GeneratedAt,
		Demo:        demo,
	}
}
