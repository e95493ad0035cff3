package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oarkflow/log"
)

// debounceWindow swallows the burst of events editors emit on save
const debounceWindow = 100 * time.Millisecond

// watchAndRun executes the script, then re-runs it on every change until
// the process is killed. Watching the directory rather than the file keeps
// the watch alive across editors that replace the file on save.
func watchAndRun(filename string) error {
	logger := &log.DefaultLogger

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(filename)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	logger.Info().Str("file", filename).Msg("watching")
	code := runFile(filename)
	logger.Info().Int("exit", code).Msg("run finished")

	var lastRun time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			changed, err := filepath.Abs(event.Name)
			if err != nil || changed != target {
				continue
			}
			if time.Since(lastRun) < debounceWindow {
				continue
			}
			lastRun = time.Now()

			logger.Info().Str("file", filename).Msg("change detected, re-running")
			code := runFile(filename)
			logger.Info().Int("exit", code).Msg("run finished")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")
		}
	}
}
