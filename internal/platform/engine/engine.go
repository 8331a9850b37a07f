// Package engine bridges the external crawler engine. Each crawl launches
// the configured command for one platform; the engine reads its behaviour
// from flags derived from the shared settings store and streams captured
// records back as JSON lines on stdout:
//
//	{"post": {...}, "comments": [{...}, ...]}
//
// How pages are scraped is entirely the engine's business.
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"mediacrawler/internal/core/capture"
	"mediacrawler/internal/core/settings"
	"mediacrawler/internal/core/store"
	"mediacrawler/internal/logger"
)

type Factory struct {
	command  string
	settings *settings.Store
	log      *logger.Logger
}

func NewFactory(command string, st *settings.Store) *Factory {
	return &Factory{command: command, settings: st, log: logger.New("Engine")}
}

func (f *Factory) Create(platformCode string) (capture.Crawler, error) {
	if f.command == "" {
		return nil, fmt.Errorf("engine command not configured (set ENGINE_CMD)")
	}
	return &process{
		command:  f.command,
		platform: platformCode,
		settings: f.settings,
		log:      f.log,
	}, nil
}

type process struct {
	command  string
	platform string
	settings *settings.Store
	log      *logger.Logger
	cmd      *exec.Cmd
}

func (p *process) Start(ctx context.Context, sink capture.Sink) error {
	v := p.settings.Current()
	args := buildArgs(v)

	cmd := exec.CommandContext(ctx, p.command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("engine stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start engine for %s: %w", p.platform, err)
	}
	p.cmd = cmd
	p.log.LogInfof("engine started for %s (pid %d)", p.platform, cmd.Process.Pid)

	captured, readErr := readRecords(ctx, stdout, sink)
	waitErr := cmd.Wait()

	p.log.LogInfof("engine finished for %s: %d records", p.platform, captured)
	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		return fmt.Errorf("engine exited for %s: %w", p.platform, waitErr)
	}
	return nil
}

func (p *process) Close(ctx context.Context) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	if p.cmd.ProcessState != nil {
		return nil // already exited
	}
	return p.cmd.Process.Kill()
}

// buildArgs maps the effective settings onto the engine's CLI surface.
func buildArgs(v settings.Values) []string {
	args := []string{
		"--platform", v.Platform,
		"--keywords", v.Keywords,
		"--type", v.CrawlerType,
		"--lt", v.LoginType,
		"--sort", v.SortType,
		"--headless", strconv.FormatBool(v.Headless),
		"--anti-detect", strconv.FormatBool(v.AntiDetection),
		"--max-count", strconv.Itoa(v.MaxItems),
		"--max-comments", strconv.Itoa(v.MaxCommentsPerItem),
		"--get-comment", strconv.FormatBool(v.CommentsEnabled),
		"--get-sub-comment", strconv.FormatBool(v.SubCommentsEnabled),
		"--max-sleep", strconv.Itoa(v.MaxSleepSec),
	}
	if v.ProxyEnabled {
		args = append(args, "--proxy", "--proxy-pool", strconv.Itoa(v.ProxyPoolCount))
	}
	return args
}

type record struct {
	Post     store.Post      `json:"post"`
	Comments []store.Comment `json:"comments"`
}

// readRecords decodes engine output line by line. Lines that are not valid
// record JSON (engine chatter, progress output) are skipped.
func readRecords(ctx context.Context, r io.Reader, sink capture.Sink) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	captured := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Post == nil {
			continue
		}
		if err := sink.Save(ctx, rec.Post, rec.Comments); err != nil {
			return captured, err
		}
		captured++
	}
	if err := scanner.Err(); err != nil {
		return captured, fmt.Errorf("read engine output: %w", err)
	}
	return captured, nil
}
