package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/component"
)

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List the available components",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listComponents(cmd.OutOrStdout(), component.NewRegistry())
	},
}

func listComponents(out io.Writer, reg *component.Registry) error {
	for _, name := range reg.Names() {
		ct, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		status := ""
		if _, err := ct.Sample(); err != nil {
			status = " (unavailable)"
		}
		fmt.Fprintf(out, "%-16s %-8s %-4s %s%s\n", ct.Name, ct.Category, ct.Rule, ct.Description, status)
	}
	return nil
}
