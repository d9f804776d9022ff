package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var mountsCmd = &cobra.Command{
	Use:   "mounts",
	Short: "Show the mount table",
	Long:  "Show the configured mounts in priority order.",
	Args:  cobra.NoArgs,
	RunE:  runMounts,
}

func init() {
	rootCmd.AddCommand(mountsCmd)
}

func runMounts(cmd *cobra.Command, args []string) error {
	vs, err := openNamespace()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tPRIORITY\tMODE\tOVERLAY")
	for _, mp := range vs.Mounts() {
		mode := "ro"
		if mp.ReadWrite() {
			mode = "rw"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%v\n", mp.Path(), mp.Priority(), mode, mp.Overlay())
	}
	return w.Flush()
}
