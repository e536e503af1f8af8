package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// ScraperClient runs an external scraper script that collects recent
// social posts and headlines. The script receives the symbols as argv
// and must print a JSON array of strings to stdout. A hard timeout keeps
// a hung scraper from stalling the decision cycle.
type ScraperClient struct {
	script  string
	timeout time.Duration
	log     *logger.Logger
}

// NewScraperClient creates a subprocess-backed social text source.
// With an empty script path every call reports unavailable.
func NewScraperClient(script string, timeout time.Duration) *ScraperClient {
	return &ScraperClient{
		script:  script,
		timeout: timeout,
		log:     logger.Get().With("component", "scraper"),
	}
}

// Texts runs the scraper and returns the collected texts.
func (c *ScraperClient) Texts(ctx context.Context, symbols []string) ([]string, error) {
	if c.script == "" {
		return nil, errors.Wrap(errors.ErrUnavailable, "no scraper script configured")
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append([]string{c.script}, symbols...)
	cmd := exec.CommandContext(runCtx, "python3", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(errors.ErrTimeout, "scraper exceeded %s", c.timeout)
		}
		return nil, errors.Wrapf(errors.ErrExternal, "scraper failed: %v: %s", err, firstLine(stderr.String()))
	}

	var texts []string
	if err := json.Unmarshal(stdout.Bytes(), &texts); err != nil {
		return nil, errors.Wrap(err, "decode scraper output")
	}

	c.log.Debugw("Scraper finished",
		"texts", len(texts),
		"duration", time.Since(start),
	)

	return texts, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
