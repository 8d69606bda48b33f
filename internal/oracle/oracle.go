package oracle

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"engineguard/internal/shared/observability"
)

// Oracle answers whether a fully qualified constant denotes a
// persistence-backed data model. Implementations must fail open: any
// failure to resolve the symbol means "not a model", never an aborted run.
type Oracle interface {
	IsPersistenceModel(ctx context.Context, name string) bool
}

// ExecOracle delegates to an external runtime command (typically a small
// rails-runner wrapper) that loads the named constant, inspects its
// ancestry for the persistence base class, and prints true or false.
type ExecOracle struct {
	command []string
	timeout time.Duration
	limiter *rate.Limiter
}

func NewExecOracle(command []string, timeout time.Duration, perSecond float64, burst int) *ExecOracle {
	return &ExecOracle{
		command: command,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (o *ExecOracle) IsPersistenceModel(ctx context.Context, name string) bool {
	if len(o.command) == 0 {
		return false
	}
	if err := o.limiter.Wait(ctx); err != nil {
		observability.OracleQueries.WithLabelValues("error").Inc()
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	args := append(append([]string(nil), o.command[1:]...), name)
	cmd := exec.CommandContext(ctx, o.command[0], args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		slog.Debug("oracle query failed, assuming not a model", "symbol", name, "error", err)
		observability.OracleQueries.WithLabelValues("error").Inc()
		return false
	}

	answer := strings.TrimSpace(stdout.String()) == "true"
	if answer {
		observability.OracleQueries.WithLabelValues("model").Inc()
	} else {
		observability.OracleQueries.WithLabelValues("not_model").Inc()
	}
	return answer
}

// Memoized caches answers per fully qualified name for the run.
type Memoized struct {
	inner Oracle
	mu    sync.Mutex
	seen  map[string]bool
}

func Memoize(inner Oracle) *Memoized {
	return &Memoized{inner: inner, seen: make(map[string]bool)}
}

func (m *Memoized) IsPersistenceModel(ctx context.Context, name string) bool {
	m.mu.Lock()
	if answer, ok := m.seen[name]; ok {
		m.mu.Unlock()
		observability.OracleCacheHits.Inc()
		return answer
	}
	m.mu.Unlock()

	answer := m.inner.IsPersistenceModel(ctx, name)

	m.mu.Lock()
	m.seen[name] = answer
	m.mu.Unlock()
	return answer
}

// Static answers from a fixed table; symbols not in the table are not
// models. Used for tests and for runs without an external runtime.
type Static map[string]bool

func (s Static) IsPersistenceModel(_ context.Context, name string) bool {
	return s[name]
}

// None treats every symbol as a non-model, disabling the bare-constant
// persistence gate entirely.
type None struct{}

func (None) IsPersistenceModel(context.Context, string) bool { return false }

// All treats every symbol as a model, so every bare constant reference into
// a protected engine is subject to validation. This is the behavior when no
// external runtime is configured.
type All struct{}

func (All) IsPersistenceModel(context.Context, string) bool { return true }
