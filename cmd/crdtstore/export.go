package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cshekharsharma/crdtstore/id"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <doc-id> <since-file>",
	Short: "Diff-encode every operation since the state vector in since-file",
	Long: "Diff-encode every operation since the state vector in since-file, writing\n" +
		"the encoded update to stdout. Pass \"-\" for since-file to export the\n" +
		"document from the beginning.",
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	since, err := readSinceFile(args[1])
	if err != nil {
		return err
	}

	upd, err := doc.CreateUpdate(since)
	if err != nil {
		return fmt.Errorf("create update: %w", err)
	}
	return upd.Encode(cmd.OutOrStdout())
}

// readSinceFile reads a state vector written by EncodeStateVector, or
// returns nil (meaning "from the beginning") when path is "-".
func readSinceFile(path string) (*id.StateVector, error) {
	if path == "-" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open since-file: %w", err)
	}
	defer f.Close()

	sv, err := id.DecodeStateVector(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode since-file: %w", err)
	}
	return sv, nil
}
