package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mithrel/muse/pkg/markdown"
)

func newFmtCmd() *cobra.Command {
	var start, end int
	var caret bool
	cmd := &cobra.Command{
		Use:   "fmt <operation> [file]",
		Short: "Apply a toolbar operation to text from a file or stdin",
		Long: "Apply a toolbar operation to the characters [start, end) of the input and print the result.\n" +
			"Offsets count characters, not bytes. Operations: " + operationNames(),
		Args:        cobra.RangeArgs(1, 2),
		Annotations: map[string]string{skipApp: "true"},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return operationList(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperationArg(args[0])
			if err != nil {
				return err
			}
			var in []byte
			if len(args) == 2 && args[1] != "-" {
				in, err = os.ReadFile(args[1])
			} else {
				in, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			res := markdown.Apply(string(in), start, end, op)
			if caret {
				enc := json.NewEncoder(cmd.OutOrStdout())
				return enc.Encode(res)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "selection start (characters)")
	cmd.Flags().IntVar(&end, "end", 0, "selection end (characters)")
	cmd.Flags().BoolVar(&caret, "json", false, "print {text, caret} as JSON")
	return cmd
}
