package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aweris/vstore"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Remove an entry",
	Long:  "Remove the entry at the given path. Index paths are removed recursively.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	p, err := vstore.ParsePath(args[0])
	if err != nil {
		return err
	}

	vs, err := openNamespace()
	if err != nil {
		return err
	}
	return vs.Remove(cmd.Context(), p)
}
