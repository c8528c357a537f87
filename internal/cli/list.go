package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/builtin"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the builtin commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := builtin.NewRegistry()
		builtin.RegisterAll(reg, builtin.Options{})
		w := cmd.OutOrStdout()
		for _, b := range reg.All() {
			fmt.Fprintf(w, "%-6s %s\n", b.Name(), b.Description())
		}
		return nil
	},
}
