package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/autosave"
	"github.com/mithrel/muse/internal/editor"
	"github.com/mithrel/muse/internal/service"
	"github.com/mithrel/muse/pkg/api"
)

const defaultAutosaveInterval = 2 * time.Second

func newDocEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "edit <ref>",
		Short:             "Edit a document in $EDITOR, saving as you write",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDoc(cmd, u.ID, args[0])
			if err != nil {
				return err
			}
			perm, err := app.Service.Permission(cmd.Context(), u.ID, d.ID)
			if err != nil {
				return err
			}
			if !perm.CanWrite() {
				return fmt.Errorf("%w: you have %s access", service.ErrForbidden, perm)
			}

			interval := app.Cfg.GetDuration("autosave.interval")
			if interval <= 0 {
				interval = defaultAutosaveInterval
			}
			saver := autosave.New(func(ctx context.Context, docID string, dr autosave.Draft, base int64) (api.Document, error) {
				return app.Service.SaveDocument(ctx, u.ID, docID, service.SaveInput{Title: dr.Title, Content: dr.Content, Version: base})
			}, interval, app.Log)
			defer saver.Close()
			saver.Track(d)

			path, err := editor.PathForID(d.ID)
			if err != nil {
				return err
			}
			keep := false
			defer func() {
				if !keep {
					_ = os.Remove(path)
				}
			}()
			draftOf := func(b []byte) autosave.Draft {
				title, content := editor.ParseEdited(string(b))
				return autosave.Draft{Title: title, Content: content}
			}
			initial := []byte(editor.ComposeContent(d.Title, d.Content))
			out, changed, err := editor.OpenWatched(cmd.Context(), path, initial, func(b []byte) {
				saver.Update(d.ID, draftOf(b))
			})
			if err != nil {
				return err
			}
			if changed {
				saver.Update(d.ID, draftOf(out))
			}
			if err := saver.Flush(cmd.Context()); err != nil {
				app.Log.Warn("final save failed", zap.String("doc", d.ID), zap.Error(err))
				if saver.Pending(d.ID) {
					keep = true
					return fmt.Errorf("%w; unsaved edits kept in %s", err, path)
				}
				return err
			}
			if v := saver.Version(d.ID); v != d.Version {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (version %d)\n", d.ID, v)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No edits; document unchanged.")
			return nil
		},
	}
	return cmd
}
