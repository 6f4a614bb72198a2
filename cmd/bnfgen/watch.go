package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchAndRun runs fn once immediately, then again every time file is
// written to, until the process is interrupted. fsnotify watches the
// containing directory rather than the file itself since many editors
// replace a file on save (write to a temp file, rename over the
// original) rather than writing it in place, which a direct watch on
// the file's inode would miss.
func watchAndRun(file string, fn func() error) error {
	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "bnfgen: %v\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(file)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(file)
	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", file)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := fn(); err != nil {
				fmt.Fprintf(os.Stderr, "bnfgen: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "bnfgen: watch error: %v\n", err)
		}
	}
}
