package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/vstore"
)

var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print an object",
	Long:  "Load the object at the given path and print it. Byte payloads are written verbatim, everything else as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	p, err := vstore.ParsePath(args[0])
	if err != nil {
		return err
	}
	if p.IsIndex() {
		return fmt.Errorf("%s is an index path; use ls", args[0])
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
		return fmt.Errorf("%s: not found", args[0])
	}

	if raw, ok := payload.([]byte); ok {
		_, err := os.Stdout.Write(raw)
		return err
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
