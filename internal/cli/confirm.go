package cli

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

var errConfirmRequired = errors.New("confirmation required; rerun with --yes")

func confirmDelete(cmd *cobra.Command, title, desc string, yes bool) error {
	if yes {
		return nil
	}
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(in.Fd()) {
		return errConfirmRequired
	}
	confirm := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Value(&confirm),
		),
	)
	if err := form.RunWithContext(cmd.Context()); err != nil {
		return err
	}
	if !confirm {
		return errors.New("aborted")
	}
	return nil
}
