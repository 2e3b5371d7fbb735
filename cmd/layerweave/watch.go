package main

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"layerweave/internal/logging"
)

// debounceWindow coalesces editor save bursts into one re-run.
const debounceWindow = 500 * time.Millisecond

// watchCmd re-runs composition whenever a layer source changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompose whenever a layer source changes",
	Long: `Watches the core, packs and project layer directories and re-runs
the full two-phase composition when a source document changes. Each run is
the same all-or-nothing batch as a single compose.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{"core", "packs", "project"} {
		if err := addTree(watcher, filepath.Join(root, dir)); err != nil {
			return err
		}
	}
	if err := watcher.Add(filepath.Join(root, "layerweave.yaml")); err != nil && !os.IsNotExist(err) {
		logger.Warn("cannot watch config file", zap.Error(err))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	// Initial run so the output exists before the first change.
	runOnce(cmd)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	logger.Info("watching for changes", zap.String("root", root))
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logging.Watch("change: %s %s", event.Op, event.Name)
			// New directories must be watched too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(watcher, event.Name)
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-pending:
			runOnce(cmd)

		case <-sig:
			logger.Info("stopping watch")
			return nil
		}
	}
}

func runOnce(cmd *cobra.Command) {
	rep, err := composeOnce(cmd)
	switch {
	case err != nil:
		fmt.Printf("compose failed: %v\n", err)
	case rep.HasErrors():
		printSummary(rep)
	default:
		s := rep.Summary()
		fmt.Printf("composed %d files\n", len(s.FilesWritten))
	}
}

// addTree registers a directory and all its subdirectories. Missing
// directories are fine; a layer may not exist yet.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
}
