package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/vstore"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List an index",
	Long:  "List the sub-indices and objects of an index path (default: the root).",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	raw := "/"
	if len(args) > 0 {
		raw = args[0]
	}
	p, err := vstore.ParsePath(raw)
	if err != nil {
		return err
	}
	if !p.IsIndex() {
		return fmt.Errorf("%s is not an index path (add a trailing slash)", raw)
	}

	vs, err := openNamespace()
	if err != nil {
		return err
	}

	payload, err := vs.Load(cmd.Context(), p)
	if err != nil {
		return err
	}
	if payload == nil {
		fmt.Println("(not found)")
		return nil
	}

	idx := payload.(*vstore.Index)
	for _, name := range idx.SubIndices() {
		fmt.Printf("%s/\n", name)
	}
	for _, name := range idx.Objects() {
		fmt.Println(name)
	}
	if idx.IsEmpty() {
		fmt.Println("(empty)")
	}
	return nil
}
