package oracle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingOracle struct {
	calls  atomic.Int64
	answer bool
}

func (c *countingOracle) IsPersistenceModel(_ context.Context, _ string) bool {
	c.calls.Add(1)
	return c.answer
}

func TestMemoize(t *testing.T) {
	inner := &countingOracle{answer: true}
	m := Memoize(inner)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !m.IsPersistenceModel(ctx, "Billing::Invoice") {
			t.Fatal("expected model answer")
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("inner oracle called %d times, want 1", got)
	}

	if m.IsPersistenceModel(ctx, "Billing::Other") != true {
		t.Error("distinct symbols must be queried separately")
	}
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("inner oracle called %d times, want 2", got)
	}
}

func TestExecOracleTrue(t *testing.T) {
	// The symbol is appended as the last argument; sh -c leaves it in $0.
	o := NewExecOracle([]string{"sh", "-c", "echo true"}, time.Second, 100, 10)
	if !o.IsPersistenceModel(context.Background(), "Billing::Invoice") {
		t.Error("expected true answer")
	}
}

func TestExecOracleFalse(t *testing.T) {
	o := NewExecOracle([]string{"sh", "-c", "echo false"}, time.Second, 100, 10)
	if o.IsPersistenceModel(context.Background(), "Billing::Invoice") {
		t.Error("expected false answer")
	}
}

func TestExecOracleFailsOpen(t *testing.T) {
	cases := [][]string{
		{"/does/not/exist"},
		{"false"}, // exits non-zero
		nil,
	}
	for _, command := range cases {
		o := NewExecOracle(command, time.Second, 100, 10)
		if o.IsPersistenceModel(context.Background(), "Billing::Invoice") {
			t.Errorf("command %v must fail open", command)
		}
	}
}

func TestExecOracleTimeout(t *testing.T) {
	o := NewExecOracle([]string{"sh", "-c", "sleep 5"}, 50*time.Millisecond, 100, 10)
	start := time.Now()
	if o.IsPersistenceModel(context.Background(), "Billing::Invoice") {
		t.Error("timed-out query must fail open")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestStaticAndFixedOracles(t *testing.T) {
	ctx := context.Background()
	s := Static{"Billing::Invoice": true}
	if !s.IsPersistenceModel(ctx, "Billing::Invoice") || s.IsPersistenceModel(ctx, "Billing::Other") {
		t.Error("static oracle table mismatch")
	}
	if (None{}).IsPersistenceModel(ctx, "Billing::Invoice") {
		t.Error("None must always answer false")
	}
	if !(All{}).IsPersistenceModel(ctx, "Billing::Invoice") {
		t.Error("All must always answer true")
	}
}
