// Package process classifies diary text by running an external model as a
// child process that prints one label code per run.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/infrastructure/resilience"
)

const (
	defaultTimeout = 8 * time.Second
	waitDelay      = time.Second
	operationName  = "classifier.process"
)

const (
	OutcomeOK           = "ok"
	OutcomeUnknownLabel = "unknown_label"
	OutcomeEmptyInput   = "empty_input"
	OutcomeEmptyOutput  = "empty_output"
	OutcomeTimeout      = "timeout"
	OutcomeFailed       = "failed"
	OutcomeCircuitOpen  = "circuit_open"
	OutcomeCanceled     = "canceled"
)

var (
	errEmptyOutput = errors.New("classifier produced no output")
	errTimeout     = errors.New("classifier timed out")
)

// Recorder observes classification outcomes.
type Recorder interface {
	RecordClassification(outcome string)
}

type Config struct {
	Command string
	Script  string
	Timeout time.Duration
}

type Classifier struct {
	command  string
	args     []string
	timeout  time.Duration
	executor *resilience.Executor
	recorder Recorder
}

func New(cfg Config, executor *resilience.Executor, recorder Recorder) *Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var args []string
	if script := strings.TrimSpace(cfg.Script); script != "" {
		args = append(args, script)
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.ProcessPolicy())
	}
	return &Classifier{
		command:  strings.TrimSpace(cfg.Command),
		args:     args,
		timeout:  timeout,
		executor: executor,
		recorder: recorder,
	}
}

// Classify never fails. Launch errors, non-zero exits, timeouts, empty
// output and unknown labels all resolve to domain.FallbackCategory.
func (c *Classifier) Classify(ctx context.Context, text string) domain.Category {
	text = strings.TrimSpace(text)
	if text == "" {
		c.record(OutcomeEmptyInput)
		return domain.FallbackCategory
	}

	label, err := resilience.Call(ctx, c.executor, operationName, func(ctx context.Context) (string, error) {
		return c.run(ctx, text)
	}, classifyError)
	if err != nil {
		outcome := OutcomeFailed
		switch {
		case isCallerDone(err):
			outcome = OutcomeCanceled
		case resilience.IsCircuitOpen(err):
			outcome = OutcomeCircuitOpen
		case errors.Is(err, errTimeout):
			outcome = OutcomeTimeout
		case errors.Is(err, errEmptyOutput):
			outcome = OutcomeEmptyOutput
		}
		c.record(outcome)
		slog.Warn("classifier_fallback", "outcome", outcome, "error", err)
		return domain.FallbackCategory
	}

	if !domain.IsKnownLabel(label) {
		c.record(OutcomeUnknownLabel)
		slog.Warn("classifier_unknown_label", "label", label)
		return domain.FallbackCategory
	}
	c.record(OutcomeOK)
	return domain.CategoryFromLabel(label)
}

func (c *Classifier) run(ctx context.Context, text string) (string, error) {
	if c.command == "" {
		return "", fmt.Errorf("classifier command is not configured")
	}
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string(nil), c.args...), text)
	cmd := exec.CommandContext(runCtx, c.command, args...)
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("classifier call abandoned: %w", ctxErr)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", errTimeout, c.timeout)
	}
	if err != nil {
		return "", fmt.Errorf("run classifier: %w: %s", err, tail(out.String(), 200))
	}

	label := lastLine(out.String())
	if label == "" {
		return "", errEmptyOutput
	}
	return label, nil
}

// classifyError keeps caller cancellation from tripping the breaker. The
// classifier's own deadline surfaces as errTimeout and still counts.
func classifyError(err error) resilience.Outcome {
	if isCallerDone(err) {
		return resilience.Outcome{}
	}
	return resilience.Outcome{CountFailure: true}
}

func isCallerDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Classifier) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordClassification(outcome)
	}
}

// lastLine returns the last non-empty line, which is where the model
// prints its label after any library warnings.
func lastLine(out string) string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
