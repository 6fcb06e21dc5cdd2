package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlinject/internal/logging"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Aliases: []string{"i"},
	Short:   "List the local assets each template references",
	Long: `Parse every configured template and show the local references it
contains, where each file is copied from and to, and the URL written into
the document. Nothing is built or written.

Examples:
  htmlinject inspect
  htmlinject inspect --format json
  htmlinject inspect -f yaml`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "table", "Output format (table, json, yaml)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	inj, err := newInjector(cfg, logging.Nop())
	if err != nil {
		return err
	}
	found, err := inj.Inspect()
	if err != nil {
		return err
	}

	return writeFormatted(cmd.OutOrStdout(), inspectFormat, found, func(w io.Writer) {
		fmt.Fprintln(w, "TARGET\tELEMENT\tREFERENCE\tURL\tSOURCE")
		for _, ins := range found {
			if len(ins.Assets) == 0 {
				fmt.Fprintf(w, "%s\t-\t-\t-\t-\n", ins.Target)
				continue
			}
			for _, ref := range ins.Assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					ins.Target, ref.Element, ref.Original, ref.URL, relativePath(ref.Input))
			}
		}
	})
}
