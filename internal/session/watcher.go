package session

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/CodexFabrica/Feder/internal/storage"
)

func (s *Session) startWatcherLocked() {
	if !s.watch || s.projDir == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	root := s.projDir.Ref()
	go func() {
		if err := watchProject(ctx, root, s.logger, s.fileEvent); err != nil {
			s.logger.Warn("watcher stopped", slog.String("root", root), slog.String("error", err.Error()))
		}
	}()
}

func (s *Session) stopWatcherLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
}

func (s *Session) fileEvent(kind, rel string) {
	if s.notify != nil {
		s.notify(kind, rel)
	}
}

// watchProject mirrors file-system changes under the project root into
// notifier events so the explorer tree stays current while the project
// is open. It blocks until ctx is cancelled.
func watchProject(ctx context.Context, root string, logger *slog.Logger, cb func(kind, rel string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("session: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirsRecursive(watcher, root); err != nil {
		return fmt.Errorf("session: watch %s: %w", root, err)
	}
	logger.Info("watcher started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, storage.TempPrefix) {
				continue
			}
			rel, rerr := filepath.Rel(root, event.Name)
			if rerr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case event.Op&fsnotify.Create != 0:
				if info, serr := os.Stat(event.Name); serr == nil && info.IsDir() {
					if werr := addDirsRecursive(watcher, event.Name); werr != nil {
						logger.Warn("watch new directory failed", slog.String("path", rel), slog.String("error", werr.Error()))
					}
				}
				cb("file.created", rel)
			case event.Op&fsnotify.Write != 0:
				cb("file.updated", rel)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				cb("file.deleted", rel)
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", werr.Error()))
		}
	}
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
