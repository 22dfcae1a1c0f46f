package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/recset/internal/recordset"
)

// watch converts src to dst, then again on every change of src until ctx is
// done. The directory is watched since editors often replace files by rename.
func watch(ctx context.Context, src, dst string, cfg recordset.Config) error {
	if err := convert(src, dst, cfg); err != nil {
		return err
	}
	src = filepath.Clean(src)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(src)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "watching", "src", src, "dst", dst)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != src || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if err := convert(src, dst, cfg); err != nil {
				slog.WarnContext(ctx, "conversion failed", "src", src, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "error watching datasource", "err", err)
		}
	}
}
