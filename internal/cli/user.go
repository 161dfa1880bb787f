package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	cmd.AddCommand(newUserCheckCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			pw, err := resolvePassword(cmd, password, true)
			if err != nil {
				return err
			}
			u, err := app.Service.SignUp(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newUserCheckCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "check <email>",
		Short: "Verify an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			pw, err := resolvePassword(cmd, password, false)
			if err != nil {
				return err
			}
			u, err := app.Service.SignIn(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\t%s\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

// resolvePassword uses the flag value, a hidden terminal prompt or a line
// from piped stdin, in that order.
func resolvePassword(cmd *cobra.Command, flagVal string, confirm bool) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	in := cmd.InOrStdin()
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readLine(in)
	}
	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprint(errOut, "Password: ")
	pw, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(errOut)
	if err != nil {
		return "", err
	}
	if confirm {
		_, _ = fmt.Fprint(errOut, "Repeat password: ")
		again, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		if string(again) != string(pw) {
			return "", errors.New("passwords do not match")
		}
	}
	return string(pw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given")
	}
	return line, nil
}
