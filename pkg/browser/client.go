package browser

import (
	"strings"
	"time"

	"hotcrawl/pkg/config"
	"hotcrawl/pkg/errors"
	"hotcrawl/pkg/logger"
)

// sessionLostMarker flags a dead tab in control tool output, stdout or stderr,
// matched case-insensitively.
const sessionLostMarker = "tab not found"

// availableMarker appears in status output when the control surface is up
const availableMarker = "enabled: true"

// Client drives the remote browser session through the external control tool.
//
// Client is not safe for concurrent use. Callers serialize access to the
// shared session themselves; the crawl supervisor holds a mutex across each
// profile's whole collection.
type Client struct {
	runner Runner
	cfg    config.BrowserConfig
	log    logger.Logger

	// targetID identifies the controlled tab, refreshed on every navigation
	targetID string

	// restartCount is the lifetime recovery budget consumed so far
	restartCount int

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewClient creates a control client using the configured command binary
func NewClient(cfg config.BrowserConfig, log logger.Logger) *Client {
	return &Client{
		runner: NewRunner(cfg.Command),
		cfg:    cfg,
		log:    log.WithField("component", "browser"),
		sleep:  time.Sleep,
	}
}

// NewClientWithRunner creates a client with a custom runner, for tests
func NewClientWithRunner(cfg config.BrowserConfig, runner Runner, log logger.Logger) *Client {
	c := NewClient(cfg, log)
	c.runner = runner
	return c
}

// Navigate points the session at url and records the resulting target id
func (c *Client) Navigate(url string) (string, error) {
	reply, err := c.execute([]string{"browser", "navigate", "--json", url}, c.cfg.CommandTimeout)
	if err != nil {
		return "", err
	}

	if doc, ok := reply.Value.(map[string]interface{}); ok {
		if id, ok := doc["targetId"].(string); ok && id != "" {
			c.targetID = id
		}
	}

	c.log.DebugWithFields("navigated", map[string]interface{}{
		"url":       url,
		"target_id": c.targetID,
	})

	return c.targetID, nil
}

// Evaluate runs a script in the current tab and returns its parsed result
func (c *Client) Evaluate(script string) (*Reply, error) {
	args := []string{"browser", "evaluate"}
	if c.targetID != "" {
		args = append(args, "--target-id", c.targetID)
	}
	args = append(args, "--fn", script)

	reply, err := c.execute(args, c.cfg.CommandTimeout)
	if err != nil {
		return nil, err
	}

	return extractResult(reply), nil
}

// Press sends a key press to the current tab
func (c *Client) Press(key string) error {
	_, err := c.execute([]string{"browser", "press", key}, c.cfg.CommandTimeout)
	return err
}

// CheckAvailable probes the control surface status
func (c *Client) CheckAvailable() bool {
	result, err := c.runner.Run([]string{"browser", "status"}, c.cfg.StatusTimeout)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(result.Combined()), availableMarker)
}

// EnsureAvailable verifies the control surface is reachable before a run,
// making one start attempt if the initial probe fails.
func (c *Client) EnsureAvailable() error {
	if c.CheckAvailable() {
		return nil
	}

	c.log.Warn("control surface not responding, attempting start")

	if _, err := c.runner.Run([]string{"browser", "start"}, c.cfg.CommandTimeout); err != nil {
		return errors.New(errors.ErrorTypeUnavailable, "browser start failed: %v", err)
	}
	c.sleep(c.cfg.StartSettle)

	if !c.CheckAvailable() {
		return errors.New(errors.ErrorTypeUnavailable, "control surface unreachable after start")
	}
	return nil
}

// RestartsUsed reports how much of the lifetime recovery budget is spent
func (c *Client) RestartsUsed() int {
	return c.restartCount
}

// execute runs a control command, parses its output, and transparently
// recovers a lost session once per call. The recovery budget is shared across
// the whole process lifetime.
func (c *Client) execute(args []string, timeout time.Duration) (*Reply, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.ActionMaxAttempts; attempt++ {
		result, err := c.runner.Run(args, timeout)
		if err != nil {
			return nil, errors.New(errors.ErrorTypeCommand, "control command failed: %v", err)
		}

		c.log.DebugWithFields("control command finished", map[string]interface{}{
			"args":      excerpt(strings.Join(args, " ")),
			"exit_code": result.ExitCode,
			"attempt":   attempt,
		})

		if strings.Contains(strings.ToLower(result.Combined()), sessionLostMarker) {
			lastErr = errors.New(errors.ErrorTypeSessionLost, "browser tab lost")

			// Recovery is granted at most once per failed call; a loss on
			// the final attempt has no retry left to benefit from it
			if attempt >= c.cfg.ActionMaxAttempts {
				break
			}

			c.log.WarnWithFields("session lost, recovering", map[string]interface{}{
				"restarts_used": c.restartCount,
				"max_restarts":  c.cfg.MaxRestarts,
			})

			if err := c.restart(); err != nil {
				return nil, err
			}
			continue
		}

		if result.ExitCode != 0 {
			return nil, errors.New(errors.ErrorTypeCommand,
				"control command exited %d: %s", result.ExitCode, excerpt(result.Combined()))
		}

		return ParseOutput(result.Stdout)
	}

	return nil, lastErr
}

// restart cycles the browser session: stop, settle, start, back off, verify.
// Exhausting the lifetime budget is terminal for the rest of the process.
func (c *Client) restart() error {
	if c.restartCount >= c.cfg.MaxRestarts {
		return errors.New(errors.ErrorTypeUnavailable,
			"browser restart budget exhausted (%d restarts)", c.cfg.MaxRestarts)
	}
	c.restartCount++

	if _, err := c.runner.Run([]string{"browser", "stop"}, c.cfg.CommandTimeout); err != nil {
		c.log.WithError(err).Warn("browser stop failed during recovery")
	}
	c.sleep(c.cfg.StopSettle)

	if _, err := c.runner.Run([]string{"browser", "start"}, c.cfg.CommandTimeout); err != nil {
		return errors.New(errors.ErrorTypeSessionLost, "browser start failed during recovery: %v", err)
	}
	c.sleep(c.cfg.RestartBackoff)

	if !c.CheckAvailable() {
		return errors.New(errors.ErrorTypeSessionLost, "control surface not available after restart")
	}

	// A fresh session has no tab yet
	c.targetID = ""

	c.log.InfoWithFields("browser session recovered", map[string]interface{}{
		"restarts_used": c.restartCount,
	})

	return nil
}

// extractResult unwraps the control tool's evaluate envelope. Evaluate output
// is a document whose "result" key holds the actual value, itself possibly
// double-encoded.
func extractResult(reply *Reply) *Reply {
	doc, ok := reply.Value.(map[string]interface{})
	if !ok {
		return reply
	}

	inner, ok := doc["result"]
	if !ok {
		return reply
	}

	inner = unwrapNested(inner)

	switch v := inner.(type) {
	case bool:
		return &Reply{Kind: KindBool, Bool: v}
	case float64:
		return &Reply{Kind: KindNumber, Number: int64(v)}
	case string:
		return &Reply{Kind: KindString, Str: v}
	default:
		return &Reply{Kind: KindValue, Value: inner}
	}
}
