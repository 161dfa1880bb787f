package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/muse/internal/present"
	"github.com/mithrel/muse/internal/present/format"
	"github.com/mithrel/muse/internal/present/tui"
	"github.com/mithrel/muse/internal/render"
	"github.com/mithrel/muse/internal/util"
	"github.com/mithrel/muse/pkg/api"
)

// newDocCmd defines the parent "doc" command.
func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"docs"},
		Short:   "Work with documents",
	}
	cmd.AddCommand(newDocNewCmd())
	cmd.AddCommand(newDocListCmd())
	cmd.AddCommand(newDocShowCmd())
	cmd.AddCommand(newDocEditCmd())
	cmd.AddCommand(newDocFormatCmd())
	cmd.AddCommand(newDocExportCmd())
	cmd.AddCommand(newDocPreviewCmd())
	cmd.AddCommand(newDocDeleteCmd())
	cmd.AddCommand(newDocHistoryCmd())
	cmd.AddCommand(newDocImportCmd())
	return cmd
}

// resolveDoc finds the document ref names among those the user can see.
func resolveDoc(cmd *cobra.Command, userID, ref string) (api.Document, error) {
	app := getApp(cmd)
	if d, err := app.Service.OpenDocument(cmd.Context(), userID, ref); err == nil {
		return d, nil
	}
	docs, err := fetchAllDocuments(cmd.Context(), app.Service, userID, "", app.Cfg.GetInt("list.page_size"))
	if err != nil {
		return api.Document{}, err
	}
	s, err := util.ResolveDocument(ref, docs)
	if err != nil {
		return api.Document{}, err
	}
	return app.Service.OpenDocument(cmd.Context(), userID, s.ID)
}

func presentOptions(cmd *cobra.Command, outputMode string, noHeaders bool) (present.Options, error) {
	app := getApp(cmd)
	mode, ok := present.ParseMode(outputMode)
	if !ok {
		return present.Options{}, fmt.Errorf("invalid --format: %s", outputMode)
	}
	width := app.Cfg.GetInt("preview.width")
	if tw := terminalWidth(cmd.OutOrStdout(), width); tw < width {
		width = tw
	}
	return present.Options{
		Mode:       mode,
		JSONIndent: true,
		Headers:    !noHeaders,
		Style:      format.Style{Name: app.Cfg.GetString("preview.style"), Width: width},
	}, nil
}

func newDocNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Create a document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			d, err := getApp(cmd).Service.CreateDocument(cmd.Context(), u.ID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Title)
			return nil
		},
	}
}

func newDocListCmd() *cobra.Command {
	var query string
	var outputMode string
	var noHeaders bool
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents you own or can access",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			opts, err := presentOptions(cmd, outputMode, noHeaders)
			if err != nil {
				return err
			}
			var docs []api.DocumentSummary
			if limit > 0 {
				docs, _, err = app.Service.ListDocuments(cmd.Context(), u.ID, api.ListQuery{Query: query, Limit: limit})
			} else {
				docs, err = fetchAllDocuments(cmd.Context(), app.Service, u.ID, query, app.Cfg.GetInt("list.page_size"))
			}
			if err != nil {
				return err
			}
			if opts.Mode == present.ModeTUI {
				opts.Actions = tui.Actions{
					Render: func(ctx context.Context, id string) (string, string, error) {
						d, err := app.Service.OpenDocument(ctx, u.ID, id)
						if err != nil {
							return "", "", err
						}
						out, err := render.Terminal(format.PrettyDocument(d), opts.Style.Name, opts.Style.Width)
						return d.Title, out, err
					},
					Delete: func(ctx context.Context, id string) error {
						return app.Service.DeleteDocument(ctx, u.ID, id)
					},
				}
				return present.RenderDocuments(cmd.Context(), cmd.OutOrStdout(), docs, opts)
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderDocuments(cmd.Context(), w, docs, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "full-text filter on title and content")
	cmd.Flags().StringVar(&outputMode, "format", "plain", "output mode: plain|pretty|json|ndjson|tui")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain/tui)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many documents (0 lists all)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats("plain", "pretty", "json", "ndjson", "tui"))
	return cmd
}

func newDocShowCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:               "show <ref>",
		Short:             "Show a document by id or title",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			opts, err := presentOptions(cmd, outputMode, false)
			if err != nil {
				return err
			}
			d, err := resolveDoc(cmd, u.ID, args[0])
			if err != nil {
				return err
			}
			if opts.Mode == present.ModeTUI {
				return present.RenderDocument(cmd.Context(), cmd.OutOrStdout(), d, opts)
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderDocument(cmd.Context(), w, d, opts)
			})
		},
	}
	cmd.Flags().StringVar(&outputMode, "format", "pretty", "output mode: plain|pretty|json|tui")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats("plain", "pretty", "json", "tui"))
	return cmd
}

func newDocDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:               "rm <ref>",
		Aliases:           []string{"delete"},
		Short:             "Delete a document you own",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			d, err := resolveDoc(cmd, u.ID, args[0])
			if err != nil {
				return err
			}
			if err := confirmDelete(cmd, fmt.Sprintf("Delete %q?", d.Title), "This permanently deletes the document for every collaborator.", yes); err != nil {
				return err
			}
			if err := getApp(cmd).Service.DeleteDocument(cmd.Context(), u.ID, d.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", d.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newDocHistoryCmd() *cobra.Command {
	var outputMode string
	var limit int
	var noHeaders bool
	cmd := &cobra.Command{
		Use:               "history <ref>",
		Short:             "Show the change history of a document",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			opts, err := presentOptions(cmd, outputMode, noHeaders)
			if err != nil {
				return err
			}
			d, err := resolveDoc(cmd, u.ID, args[0])
			if err != nil {
				return err
			}
			evs, err := getApp(cmd).Service.History(cmd.Context(), u.ID, d.ID, limit)
			if err != nil {
				return err
			}
			return present.RenderEvents(cmd.OutOrStdout(), evs, opts)
		},
	}
	cmd.Flags().StringVar(&outputMode, "format", "plain", "output mode: plain|json|ndjson")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of events (0 uses the default)")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers")
	return cmd
}
