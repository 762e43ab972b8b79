// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/soup/internal/core/effects"
	"github.com/example/soup/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor applies effects to the shared session state and the
// local system log.
type DefaultEffectExecutor struct {
	repos     SessionRepos
	systemLog secondary.SystemLog
	logger    *slog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(repos SessionRepos, systemLog secondary.SystemLog, logger *slog.Logger) *DefaultEffectExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultEffectExecutor{repos: repos, systemLog: systemLog, logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
// It stops at the first failure; effects already applied stay applied.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.PersistEffect:
		return e.executePersist(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		return e.executeLog(ctx, typed)
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

// executeLog mirrors the line to the system log. A system log failure is
// reported to the operator log only; it never fails the submission.
func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) error {
	if e.systemLog == nil {
		return nil
	}
	if err := e.systemLog.Record(ctx, eff.Level, eff.Message); err != nil {
		e.logger.Warn("failed to record system log line", "message", eff.Message, "error", err)
	}
	return nil
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Entity {
	case effects.EntityPlayer:
		return e.executePlayerOp(ctx, eff)
	case effects.EntityStatus:
		return e.executeStatusOp(ctx, eff)
	case effects.EntityEvidence:
		return e.executeEvidenceOp(ctx, eff)
	case effects.EntityTranscript:
		return e.executeTranscriptOp(ctx, eff)
	default:
		return fmt.Errorf("unknown entity: %s", eff.Entity)
	}
}

func (e *DefaultEffectExecutor) executePlayerOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpApplyVerdict:
		data, ok := eff.Data.(effects.PlayerVerdictData)
		if !ok {
			return fmt.Errorf("invalid player verdict data type: %T", eff.Data)
		}
		_, err := e.repos.Players.ApplyVerdict(ctx, data.PlayerID, data.ScoreDelta, data.ConsumeQuery, data.At)
		return err
	default:
		return fmt.Errorf("unknown player operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeStatusOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpSetCompleteness:
		data, ok := eff.Data.(effects.CompletenessData)
		if !ok {
			return fmt.Errorf("invalid completeness data type: %T", eff.Data)
		}
		return e.repos.Status.SetCompleteness(ctx, data.Value, data.At)
	case effects.OpFinish:
		data, ok := eff.Data.(effects.FinishData)
		if !ok {
			return fmt.Errorf("invalid finish data type: %T", eff.Data)
		}
		return e.repos.Status.Finish(ctx, data.Winner, data.At)
	default:
		return fmt.Errorf("unknown status operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeEvidenceOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpAppend:
		data, ok := eff.Data.(effects.EvidenceData)
		if !ok {
			return fmt.Errorf("invalid evidence data type: %T", eff.Data)
		}
		_, err := e.repos.Evidence.Append(ctx, &secondary.EvidenceRecord{
			Text:       data.Text,
			UnlockedBy: data.UnlockedBy,
			CreatedAt:  data.At,
		})
		return err
	default:
		return fmt.Errorf("unknown evidence operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeTranscriptOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpAppend:
		data, ok := eff.Data.(effects.TranscriptData)
		if !ok {
			return fmt.Errorf("invalid transcript data type: %T", eff.Data)
		}
		_, err := e.repos.Transcript.Append(ctx, &secondary.TranscriptRecord{
			Text:      data.Text,
			Sender:    data.Sender,
			SenderID:  data.SenderID,
			Kind:      data.Kind,
			Status:    data.Status,
			Tone:      data.Tone,
			CreatedAt: data.At,
		})
		return err
	case effects.OpSetStatus:
		data, ok := eff.Data.(effects.TranscriptStatusData)
		if !ok {
			return fmt.Errorf("invalid transcript status data type: %T", eff.Data)
		}
		return e.repos.Transcript.SetStatus(ctx, data.EntryID, data.Status)
	default:
		return fmt.Errorf("unknown transcript operation: %s", eff.Operation)
	}
}
