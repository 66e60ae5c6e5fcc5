package cli

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"

	"github.com/blimu-dev/asyncapi-gen/pkg/asyncapi"
	"github.com/blimu-dev/asyncapi-gen/pkg/config"
	"github.com/blimu-dev/asyncapi-gen/pkg/generrors"
)

// debouncePeriod collapses the burst of events an editor save produces
const debouncePeriod = 300 * time.Millisecond

// RunWatch generates once and then again every time the contract or the
// config file changes, until ctx is cancelled. Watch runs never prompt.
func RunWatch(ctx context.Context, p RunGenerateParams) error {
	p.NonInteractive = true
	files, err := watchedFiles(p)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer w.Close()

	// editors replace files on save, so watch the directories
	dirs := map[string]bool{}
	for f := range files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = true
	}

	regenerate := func() {
		if err := RunGenerate(ctx, p); err != nil {
			PrintError(err)
		}
	}
	regenerate()

	names := make([]string, 0, len(files))
	for f := range files {
		names = append(names, f)
	}
	sort.Strings(names)
	pterm.Info.Printf("Watching %s for changes (Ctrl+C to stop)\n", strings.Join(names, ", "))

	return watchLoop(ctx, w, files, debouncePeriod, regenerate)
}

// watchedFiles returns the absolute paths whose changes trigger a run
func watchedFiles(p RunGenerateParams) (map[string]bool, error) {
	files := map[string]bool{}
	spec := p.Fallback.Spec
	if p.ConfigPath != "" {
		cfg, err := config.Load(p.ConfigPath)
		if err != nil {
			return nil, err
		}
		spec = cfg.Spec
		files[absPath(p.ConfigPath)] = true
	}
	if strings.TrimSpace(spec) == "" {
		return nil, &generrors.InputError{Kind: generrors.InputMissing, Message: asyncapi.MissingPathMessage}
	}
	files[absPath(spec)] = true
	return files, nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, files map[string]bool, period time.Duration, onChange func()) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(period)
			} else {
				timer.Reset(period)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			pterm.Warning.Printf("watcher error: %v\n", err)
		}
	}
}
