package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/muse/pkg/markdown"
)

func newDocFormatCmd() *cobra.Command {
	var start, end int
	cmd := &cobra.Command{
		Use:   "format <ref> <operation>",
		Short: "Apply a toolbar operation to a stored document",
		Long: "Apply a toolbar operation to the characters [start, end) of a stored document and save it.\n" +
			"Operations: " + operationNames(),
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeFormatArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			op, err := parseOperationArg(args[1])
			if err != nil {
				return err
			}
			d, err := resolveDoc(cmd, u.ID, args[0])
			if err != nil {
				return err
			}
			saved, res, err := app.Service.FormatDocument(cmd.Context(), u.ID, d.ID, start, end, op)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tversion %d\tcaret %d\n", saved.ID, saved.Version, res.Caret)
			return nil
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "selection start (characters)")
	cmd.Flags().IntVar(&end, "end", 0, "selection end (characters)")
	return cmd
}

func newDocExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:               "export <ref>",
		Short:             "Write a document's markdown to a .md file",
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
			name, body, err := getApp(cmd).Service.Export(cmd.Context(), u.ID, d.ID)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file; - for stdout (default: <title>.md)")
	return cmd
}

func newDocPreviewCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:               "preview <ref>",
		Short:             "Render a document to a standalone HTML page",
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
			page, err := getApp(cmd).Service.Preview(cmd.Context(), u.ID, d.ID)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(page)
				return err
			}
			if err := os.WriteFile(out, page, 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output .html file (default: stdout)")
	return cmd
}

func newDocImportCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "import <file.md>...",
		Short: "Create documents from markdown files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title != "" && len(args) > 1 {
				return fmt.Errorf("--title can only be used with a single file")
			}
			app := getApp(cmd)
			u, err := actingUser(cmd)
			if err != nil {
				return err
			}
			imported := 0
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				t := title
				if t == "" {
					t = titleFromPath(path)
				}
				d, err := app.Service.ImportDocument(cmd.Context(), u.ID, t, string(b))
				if err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", path, err)
					continue
				}
				imported++
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Title)
			}
			if imported == 0 {
				return fmt.Errorf("nothing imported")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "title for a single imported file (default: file name)")
	return cmd
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func operationList() []string {
	ops := markdown.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

func operationNames() string { return strings.Join(operationList(), ", ") }

// parseOperationArg is strict: the CLI rejects names the transform would
// silently treat as identity.
func parseOperationArg(s string) (markdown.Operation, error) {
	op := markdown.ParseOperation(s)
	if !op.Known() {
		return op, fmt.Errorf("unknown operation %q (want one of: %s)", s, operationNames())
	}
	return op, nil
}

func completeFormatArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeDocRefs(cmd, args, toComplete)
	}
	if len(args) == 1 {
		return operationList(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
