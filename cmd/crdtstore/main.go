// Command crdtstore is a minimal CLI exercising the library end to end:
// apply an update to a document, print its state vector, export a diff,
// or dump its blocks for debugging. It is a developer smoke-test binary,
// not a networked service (spec.md's Non-goals exclude those).
//
// Grounded on cuemby-warren/cmd/warren's cobra command-tree shape
// (package main, a rootCmd with Version info, one file per subcommand).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "crdtstore",
	Short:   "crdtstore - a persistent, multi-document CRDT storage engine",
	Version: Version,
}

var dataDirFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "./data", "directory holding per-document bbolt files")
}
