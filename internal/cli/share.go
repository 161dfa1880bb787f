package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/muse/internal/present"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Manage who can see and edit a document",
	}
	cmd.AddCommand(newShareAddCmd())
	cmd.AddCommand(newShareListCmd())
	cmd.AddCommand(newShareRemoveCmd())
	return cmd
}

func newShareAddCmd() *cobra.Command {
	var permission string
	cmd := &cobra.Command{
		Use:               "add <ref> <email>",
		Short:             "Give another account access to a document",
		Args:              cobra.ExactArgs(2),
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
			c, err := getApp(cmd).Service.AddCollaborator(cmd.Context(), u.ID, d.ID, args[1], permission)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.Email, c.Permission)
			return nil
		},
	}
	cmd.Flags().StringVarP(&permission, "permission", "p", "viewer", "viewer or editor")
	_ = cmd.RegisterFlagCompletionFunc("permission", completeFormats("viewer", "editor"))
	return cmd
}

func newShareListCmd() *cobra.Command {
	var outputMode string
	var noHeaders bool
	cmd := &cobra.Command{
		Use:               "list <ref>",
		Short:             "List collaborators of a document",
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
			cs, err := getApp(cmd).Service.ListCollaborators(cmd.Context(), u.ID, d.ID)
			if err != nil {
				return err
			}
			return present.RenderCollaborators(cmd.OutOrStdout(), cs, opts)
		},
	}
	cmd.Flags().StringVar(&outputMode, "format", "plain", "output mode: plain|json")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers")
	return cmd
}

func newShareRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <ref> <collaborator-id>",
		Short:             "Revoke a collaborator's access",
		Args:              cobra.ExactArgs(2),
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
			if err := getApp(cmd).Service.RemoveCollaborator(cmd.Context(), u.ID, d.ID, args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[1])
			return nil
		},
	}
}
