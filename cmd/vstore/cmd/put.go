package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/vstore"
)

var (
	putFromFile string
	putAsJSON   bool
)

var putCmd = &cobra.Command{
	Use:   "put <path> [value]",
	Short: "Store an object",
	Long:  "Store a value at the given object path. The value is taken from the argument, or from a file with --file.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runPut,
}

func init() {
	putCmd.Flags().StringVarP(&putFromFile, "file", "f", "", "read the payload from a file (stored as bytes)")
	putCmd.Flags().BoolVar(&putAsJSON, "json", false, "parse the value argument as JSON")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	p, err := vstore.ParsePath(args[0])
	if err != nil {
		return err
	}

	var payload any
	switch {
	case putFromFile != "":
		raw, err := os.ReadFile(putFromFile)
		if err != nil {
			return err
		}
		payload = raw
	case len(args) == 2 && putAsJSON:
		if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
			return fmt.Errorf("parse value: %w", err)
		}
	case len(args) == 2:
		payload = args[1]
	default:
		return fmt.Errorf("missing value: pass an argument or --file")
	}

	vs, err := openNamespace()
	if err != nil {
		return err
	}
	return vs.Store(cmd.Context(), p, payload)
}
