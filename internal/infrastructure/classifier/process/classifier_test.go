package process

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/infrastructure/resilience"
)

type recorderFake struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorderFake) RecordClassification(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorderFake) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predict.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newScriptClassifier(t *testing.T, body string, timeout time.Duration) (*Classifier, *recorderFake) {
	t.Helper()
	rec := &recorderFake{}
	c := New(Config{Command: "sh", Script: writeScript(t, body), Timeout: timeout},
		resilience.NewExecutor(resilience.ProcessPolicy()), rec)
	return c, rec
}

func TestClassifyMapsLabels(t *testing.T) {
	cases := map[string]domain.Category{
		"family": domain.CategoryFamily,
		"couple": domain.CategoryCouple,
		"friend": domain.CategoryFriendship,
		"food":   domain.CategoryFoodTour,
		"group":  domain.CategoryGroup,
	}
	for label, want := range cases {
		c, rec := newScriptClassifier(t, "echo "+label, time.Second)
		if got := c.Classify(context.Background(), "여행"); got != want {
			t.Fatalf("label %s: got %s, want %s", label, got, want)
		}
		if rec.last() != OutcomeOK {
			t.Fatalf("label %s: expected ok outcome, got %s", label, rec.last())
		}
	}
}

func TestClassifyPassesTextAsArgument(t *testing.T) {
	c, _ := newScriptClassifier(t, `case "$1" in *가족*) echo family ;; *) echo group ;; esac`, time.Second)
	if got := c.Classify(context.Background(), "우리 가족과 함께한 여행"); got != domain.CategoryFamily {
		t.Fatalf("expected family, got %s", got)
	}
}

func TestClassifyUsesLastOutputLine(t *testing.T) {
	c, _ := newScriptClassifier(t, "echo 'Some weights were not initialized' >&2\necho couple\necho", time.Second)
	if got := c.Classify(context.Background(), "text"); got != domain.CategoryCouple {
		t.Fatalf("expected couple, got %s", got)
	}
}

func TestClassifyFallsBack(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		outcome string
	}{
		{"non-zero exit", "echo family; exit 1", OutcomeFailed},
		{"empty output", "exit 0", OutcomeEmptyOutput},
		{"unknown label", "echo pirate", OutcomeUnknownLabel},
		{"timeout", "exec sleep 5", OutcomeTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newScriptClassifier(t, tc.body, 200*time.Millisecond)
			if got := c.Classify(context.Background(), "text"); got != domain.FallbackCategory {
				t.Fatalf("expected fallback, got %s", got)
			}
			if rec.last() != tc.outcome {
				t.Fatalf("expected outcome %s, got %s", tc.outcome, rec.last())
			}
		})
	}
}

func TestClassifyMissingCommandFallsBack(t *testing.T) {
	rec := &recorderFake{}
	c := New(Config{Command: "/nonexistent/python3", Script: "predict.py"}, nil, rec)
	if got := c.Classify(context.Background(), "text"); got != domain.FallbackCategory {
		t.Fatalf("expected fallback, got %s", got)
	}
	if rec.last() != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", rec.last())
	}
}

func TestClassifyEmptyTextSkipsProcess(t *testing.T) {
	c, rec := newScriptClassifier(t, "echo family", time.Second)
	if got := c.Classify(context.Background(), "   "); got != domain.FallbackCategory {
		t.Fatalf("expected fallback, got %s", got)
	}
	if rec.last() != OutcomeEmptyInput {
		t.Fatalf("expected empty_input outcome, got %s", rec.last())
	}
}

func TestClassifyOpenCircuitSkipsLaunch(t *testing.T) {
	rec := &recorderFake{}
	exec := resilience.NewExecutor(resilience.Policy{
		Attempts: 1,
		Breaker: resilience.BreakerPolicy{
			Enabled:          true,
			MinRequests:      1,
			FailureRatio:     0.5,
			OpenTimeout:      time.Minute,
			HalfOpenMaxCalls: 1,
		},
	})
	c := New(Config{Command: "sh", Script: writeScript(t, "exit 3")}, exec, rec)

	c.Classify(context.Background(), "first")
	if got := c.Classify(context.Background(), "second"); got != domain.FallbackCategory {
		t.Fatalf("expected fallback, got %s", got)
	}
	if rec.last() != OutcomeCircuitOpen {
		t.Fatalf("expected circuit_open outcome, got %s", rec.last())
	}
}

func TestClassifyCallerCancellationKeepsCircuitClosed(t *testing.T) {
	c, rec := newScriptClassifier(t, `case "$1" in slow) exec sleep 5 ;; esac
echo family`, 5*time.Second)

	for i := 0; i < 6; i++ {
		var ctx context.Context
		var cancel context.CancelFunc
		if i%2 == 0 {
			ctx, cancel = context.WithCancel(context.Background())
			time.AfterFunc(50*time.Millisecond, cancel)
		} else {
			ctx, cancel = context.WithTimeout(context.Background(), 50*time.Millisecond)
		}
		if got := c.Classify(ctx, "slow"); got != domain.FallbackCategory {
			t.Fatalf("call %d: expected fallback, got %s", i, got)
		}
		cancel()
		if rec.last() != OutcomeCanceled {
			t.Fatalf("call %d: expected canceled outcome, got %s", i, rec.last())
		}
	}

	if got := c.Classify(context.Background(), "우리 가족 여행"); got != domain.CategoryFamily {
		t.Fatalf("expected family after cancelled calls, got %s", got)
	}
	if rec.last() != OutcomeOK {
		t.Fatalf("expected ok outcome, got %s", rec.last())
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("warn\r\nfood\r\n\r\n"); got != "food" {
		t.Fatalf("expected food, got %q", got)
	}
	if got := lastLine("\n \n"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
