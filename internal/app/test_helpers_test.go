package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/soup/internal/adapters/memstore"
	"github.com/example/soup/internal/adapters/persistence"
	"github.com/example/soup/internal/observability"
	"github.com/example/soup/internal/ports/secondary"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeClock is a manually advanced clock shared by every client in a test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: t0}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Ensure mockOracle implements the interface
var _ secondary.Oracle = (*mockOracle)(nil)

// mockOracle implements secondary.Oracle for testing.
type mockOracle struct {
	mu            sync.Mutex
	verdicts      []*secondary.Verdict
	judgeErr      error
	judgeCalls    int
	lastJudge     *secondary.JudgeRequest
	generated     *secondary.GeneratedPuzzle
	generateErr   error
	generateCalls int
	onGenerate    func()
}

func (m *mockOracle) Judge(ctx context.Context, req *secondary.JudgeRequest) (*secondary.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judgeCalls++
	m.lastJudge = req
	if m.judgeErr != nil {
		return nil, m.judgeErr
	}
	if len(m.verdicts) == 0 {
		return &secondary.Verdict{Answer: "Irrelevant", FlavorText: "Irrelevant.", Completeness: req.Completeness}, nil
	}
	v := m.verdicts[0]
	if len(m.verdicts) > 1 {
		m.verdicts = m.verdicts[1:]
	}
	return v, nil
}

func (m *mockOracle) Generate(ctx context.Context, req *secondary.GenerateRequest) (*secondary.GeneratedPuzzle, error) {
	m.mu.Lock()
	m.generateCalls++
	hook := m.onGenerate
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.generated, nil
}

func (m *mockOracle) calls() (judge, generate int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.judgeCalls, m.generateCalls
}

// Ensure mockSystemLog implements the interface
var _ secondary.SystemLog = (*mockSystemLog)(nil)

// mockSystemLog implements secondary.SystemLog for testing.
type mockSystemLog struct {
	mu    sync.Mutex
	lines []*secondary.SystemLogRecord
}

func (m *mockSystemLog) Record(ctx context.Context, level, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, &secondary.SystemLogRecord{
		ID:      int64(len(m.lines) + 1),
		Level:   level,
		Message: message,
	})
	return nil
}

func (m *mockSystemLog) Recent(ctx context.Context, limit int) ([]*secondary.SystemLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.SystemLogRecord
	for i := len(m.lines) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.lines[i])
	}
	return result, nil
}

func (m *mockSystemLog) contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

// testClient is one session client wired against a shared store.
type testClient struct {
	session *SessionServiceImpl
	regen   *RegenerationServiceImpl
	oracle  *mockOracle
	log     *mockSystemLog
}

// testSession is a shared store plus its repositories.
type testSession struct {
	store *memstore.Store
	repos SessionRepos
	clock *fakeClock
}

func newTestSession(t *testing.T) *testSession {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	return &testSession{
		store: store,
		repos: newSessionRepos(store),
		clock: newFakeClock(),
	}
}

func newSessionRepos(store secondary.DocumentStore) SessionRepos {
	return SessionRepos{
		Players:    persistence.NewPlayerRepository(store),
		Puzzle:     persistence.NewPuzzleRepository(store),
		Status:     persistence.NewStatusRepository(store),
		Lock:       persistence.NewLockRepository(store),
		Evidence:   persistence.NewEvidenceRepository(store),
		Transcript: persistence.NewTranscriptRepository(store),
	}
}

// client builds a new client on the shared session with its own oracle and log.
func (ts *testSession) client(adminID string) *testClient {
	return ts.clientWithRepos(ts.repos, adminID)
}

func (ts *testSession) clientWithRepos(repos SessionRepos, adminID string) *testClient {
	oracle := &mockOracle{}
	log := &mockSystemLog{}
	cfg := SessionConfig{AdminID: adminID, Persona: "TERMINAL", Now: ts.clock.Now}
	logger := observability.Discard()
	executor := NewEffectExecutor(repos, log, logger)
	return &testClient{
		session: NewSessionService(repos, oracle, persistence.NewChangeFeed(ts.store), executor, log, cfg, logger, nil),
		regen:   NewRegenerationService(repos, oracle, log, cfg, logger, nil),
		oracle:  oracle,
		log:     log,
	}
}
