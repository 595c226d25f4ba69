// Package ingest turns text files dropped into an inbox directory into fill
// passes.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
)

// Submitter is the queue the inbox feeds.
type Submitter interface {
	Do(ctx context.Context, job async.Job) (pipeline.Report, error)
}

// DirStats summarizes a directory drain.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Inbox runs one pass per inbox file and marks the file done afterwards.
type Inbox struct {
	queue  Submitter
	logger *slog.Logger
}

func NewInbox(queue Submitter, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{queue: queue, logger: logger}
}

// ProcessFile submits the file's text and, once the pass has run, renames the
// file to <name>.done so it is not picked up again. A blank file is left in
// place without a pass; its writer may still be on the way and the next write
// event brings it back.
func (in *Inbox) ProcessFile(ctx context.Context, path string) (pipeline.Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("read inbox file: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		in.logger.Debug("inbox.file.blank", "path", path)
		return pipeline.Report{}, nil
	}

	rep, err := in.queue.Do(ctx, async.Job{Text: string(b), Source: constants.SourceInbox})
	if err != nil {
		in.logger.Error("inbox.pass.failed", "path", path, "error", err)
		return rep, err
	}

	if err := os.Rename(path, path+constants.DoneSuffix); err != nil {
		return rep, fmt.Errorf("mark inbox file done: %w", err)
	}
	in.logger.Info("inbox.file.done", "path", path, "pass_id", rep.ID, "filled", rep.Filled)
	return rep, nil
}

// Run processes paths until the channel closes or ctx ends.
func (in *Inbox) Run(ctx context.Context, paths <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if _, err := in.ProcessFile(ctx, p); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				in.logger.Warn("inbox.file.skipped", "path", p, "error", err)
			}
		}
	}
}

// Drain processes files already sitting in dir, in name order. Hidden files
// and other extensions are skipped; subdirectories are not descended.
func (in *Inbox) Drain(ctx context.Context, dir string) (DirStats, error) {
	var stats DirStats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			stats.Failed++
			return nil // continue walking
		}
		if d.IsDir() {
			if path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		stats.Scanned++
		if !eligible(path) {
			return nil
		}
		stats.Matched++
		if _, err := in.ProcessFile(ctx, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}
	in.logger.Info("inbox.drain.ok", "dir", dir, "matched", stats.Matched, "succeeded", stats.Succeeded, "failed", stats.Failed)
	return stats, nil
}
