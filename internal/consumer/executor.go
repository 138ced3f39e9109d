package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs consumers with a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{timeout: timeout}
}

// Execute runs c with req as JSON on stdin and parses stdout as a Response.
func (e *Executor) Execute(ctx context.Context, c *Consumer, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Executable)
	cmd.Dir = c.Path
	cmd.WaitDelay = time.Second

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("consumer %s timed out after %v", c.Manifest.Name, e.timeout)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("consumer %s failed: %w, stderr: %s", c.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("consumer %s failed: %w", c.Manifest.Name, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse consumer response: %w, stdout: %s", err, stdout.String())
	}

	return &resp, nil
}

// Notify sends req to every consumer of m in turn and collects the replies.
func (e *Executor) Notify(ctx context.Context, m *Manager, req *Request) []Reply {
	consumers := m.List()
	replies := make([]Reply, 0, len(consumers))
	for _, c := range consumers {
		r := Reply{Consumer: c.Manifest.Name}
		resp, err := e.Execute(ctx, c, req)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Response = resp
		}
		replies = append(replies, r)
	}
	return replies
}
