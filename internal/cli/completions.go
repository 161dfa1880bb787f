package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/muse/internal/util"
)

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "completion",
		Short:       "Generate shell completion scripts",
		Annotations: map[string]string{skipApp: "true"},
	}

	cmd.AddCommand(&cobra.Command{
		Use:         "bash",
		Short:       "Generate Bash completions",
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:         "zsh",
		Short:       "Generate Zsh completions",
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:         "fish",
		Short:       "Generate Fish completions",
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})

	return cmd
}

const completionLimit = 20

// completeDocRefs suggests document titles for the first positional argument.
// When the completion request did not wire an app, it builds and closes one.
func completeDocRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	app, ok := appFrom(cmd)
	if !ok {
		if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		app = getApp(cmd)
		defer app.Close()
	}
	u, err := actingUser(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	docs, err := fetchAllDocuments(cmd.Context(), app.Service, u.ID, "", 0)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return util.ScoreCompletions(toComplete, util.DocumentTitles(docs), completionLimit), cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(modes ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return modes, cobra.ShellCompDirectiveNoFileComp
	}
}
