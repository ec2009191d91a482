package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
)

// WorkbookWatcher reports changes of a workbook file, or of the CSV files
// of a workbook directory.
type WorkbookWatcher struct {
	path     string
	isDir    bool
	watcher  *fsnotify.Watcher
	onChange func(path string)
}

// NewWorkbookWatcher creates a watcher for path.
func NewWorkbookWatcher(path string, onChange func(path string)) (*WorkbookWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve workbook path").WithContext("path", path).Build()
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat workbook").WithContext("path", absPath).Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create file watcher").Build()
	}

	// Editors replace files on save, so the parent directory is watched.
	dir := filepath.Dir(absPath)
	if info.IsDir() {
		dir = absPath
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to watch workbook directory").WithContext("path", dir).Build()
	}
	return &WorkbookWatcher{path: absPath, isDir: info.IsDir(), watcher: w, onChange: onChange}, nil
}

// Run delivers change notifications until ctx is done or Close is called.
func (ww *WorkbookWatcher) Run(ctx context.Context) {
	slog.Info("Watching workbook", logfields.Path(ww.path))
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ww.watcher.Events:
			if !ok {
				return
			}
			if !ww.relevant(ev) {
				continue
			}
			slog.Debug("Workbook change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			ww.onChange(ev.Name)
		case err, ok := <-ww.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Workbook watcher error", logfields.Error(err))
		}
	}
}

func (ww *WorkbookWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") || strings.HasSuffix(base, "~") {
		return false
	}
	if ww.isDir {
		return strings.EqualFold(filepath.Ext(base), ".csv")
	}
	return filepath.Clean(ev.Name) == ww.path
}

// Close stops watching.
func (ww *WorkbookWatcher) Close() error {
	return ww.watcher.Close()
}
