package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <doc-id> <update-file>",
	Short: "Apply an encoded update to a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("open update file: %w", err)
	}
	defer f.Close()

	if err := doc.ApplyUpdate(f); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	sv, err := doc.StateVector()
	if err != nil {
		return err
	}
	return printStateVector(cmd, sv)
}
