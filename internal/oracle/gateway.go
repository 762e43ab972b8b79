package oracle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/example/soup/internal/observability"
	"github.com/example/soup/internal/ports/secondary"
)

const (
	// DefaultFanout is the number of redundant requests per operation.
	DefaultFanout = 3
	// DefaultAttemptTimeout bounds each individual request.
	DefaultAttemptTimeout = 60 * time.Second

	opJudge    = "judge"
	opGenerate = "generate"
)

// Config tunes the gateway.
type Config struct {
	Model          string
	Fanout         int
	AttemptTimeout time.Duration
}

// Gateway implements the Oracle port on top of an OpenAI-compatible API.
type Gateway struct {
	client  ChatCompleter
	cfg     Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

var _ secondary.Oracle = (*Gateway)(nil)

// NewGateway creates a gateway. metrics may be nil.
func NewGateway(client ChatCompleter, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Gateway {
	if cfg.Fanout < 1 {
		cfg.Fanout = DefaultFanout
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{client: client, cfg: cfg, logger: logger, metrics: metrics}
}

// Judge races Fanout requests and returns the first schema-valid verdict.
func (g *Gateway) Judge(ctx context.Context, req *secondary.JudgeRequest) (*secondary.Verdict, error) {
	chat := chatRequest(g.cfg.Model, JudgeMessages(req), judgeTemperature)
	return raceDecoded(ctx, g, opJudge, func(raw string) (*secondary.Verdict, error) {
		return DecodeVerdict(req.Mode, raw)
	}, chat)
}

// Generate races Fanout requests and returns the first schema-valid puzzle.
func (g *Gateway) Generate(ctx context.Context, req *secondary.GenerateRequest) (*secondary.GeneratedPuzzle, error) {
	chat := chatRequest(g.cfg.Model, GenerateMessages(req), generateTemperature)
	return raceDecoded(ctx, g, opGenerate, DecodePuzzle, chat)
}

func raceDecoded[T any](ctx context.Context, g *Gateway, op string, decode func(string) (T, error), chat openai.ChatCompletionRequest) (T, error) {
	start := time.Now()
	v, err := Race(ctx, op, g.cfg.Fanout, func(ctx context.Context, i int) (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()

		var zero T
		raw, err := complete(attemptCtx, g.client, chat)
		if err != nil {
			g.metrics.ObserveOracleAttempt(op, attemptOutcome(ctx, err))
			g.logger.Debug("oracle attempt failed", "op", op, "attempt", i+1, "error", err)
			return zero, err
		}
		v, err := decode(raw)
		if err != nil {
			g.metrics.ObserveOracleAttempt(op, "invalid")
			g.logger.Debug("oracle attempt returned invalid payload", "op", op, "attempt", i+1, "error", err)
			return zero, err
		}
		g.metrics.ObserveOracleAttempt(op, "ok")
		return v, nil
	}, nil)

	if err != nil {
		g.metrics.ObserveOracleRace(op, "failed", time.Since(start))
		g.logger.Warn("oracle race failed", "op", op, "fanout", g.cfg.Fanout, "error", err)
		return v, err
	}
	g.metrics.ObserveOracleRace(op, "ok", time.Since(start))
	g.logger.Debug("oracle race won", "op", op, "elapsed", time.Since(start))
	return v, nil
}

// attemptOutcome separates losers cancelled by the race from genuine failures.
func attemptOutcome(raceCtx context.Context, err error) string {
	if raceCtx.Err() != nil && errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "error"
}
