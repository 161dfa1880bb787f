package editor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onWrite with the file contents every time path is written,
// until ctx is done. The parent directory is watched because many editors
// save by renaming a new file over the old one.
func Watch(ctx context.Context, path string, onWrite func([]byte)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return err
	}
	go func() {
		defer w.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				data, err := os.ReadFile(target)
				if err != nil {
					continue
				}
				onWrite(data)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// OpenWatched is OpenAt that also reports intermediate saves to onWrite
// while the editor is running.
func OpenWatched(ctx context.Context, path string, initial []byte, onWrite func([]byte)) ([]byte, bool, error) {
	if err := writeFile0600(path, initial); err != nil {
		return nil, false, err
	}
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := Watch(wctx, path, onWrite); err != nil {
		return nil, false, err
	}
	return OpenAt(path, initial)
}
