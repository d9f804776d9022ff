package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/aweris/vstore"
)

var (
	importConcurrency int
	importRaw         bool
)

var importCmd = &cobra.Command{
	Use:   "import <dir> <prefix>",
	Short: "Import a directory tree",
	Long:  "Store every file under a local directory at the corresponding path below the given index prefix.",
	Args:  cobra.ExactArgs(2),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 8, "parallel store operations")
	importCmd.Flags().BoolVar(&importRaw, "raw", false, "store payloads as bytes instead of strings")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dir, rawPrefix := args[0], args[1]

	prefix, err := vstore.ParsePath(rawPrefix)
	if err != nil {
		return err
	}
	if !prefix.IsIndex() {
		return fmt.Errorf("%s is not an index path (add a trailing slash)", rawPrefix)
	}

	vs, err := openNamespace()
	if err != nil {
		return err
	}

	p := pool.New().WithErrors().WithMaxGoroutines(importConcurrency)
	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		target, err := vstore.ParsePath(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		dest, err := prefix.Descendant(target)
		if err != nil {
			return err
		}
		count++
		p.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var payload any = string(raw)
			if importRaw {
				payload = raw
			}
			if err := vs.Store(cmd.Context(), dest, payload); err != nil {
				return fmt.Errorf("store %s: %w", dest, err)
			}
			return nil
		})
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	if err := p.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Imported %d file(s) under %s\n", count, strings.TrimSuffix(prefix.String(), "/")+"/")
	return nil
}
