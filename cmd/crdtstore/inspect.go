package main

import (
	"fmt"

	"github.com/cshekharsharma/crdtstore/block"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <doc-id>",
	Short: "Dump every stored block, for debugging",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	out := cmd.OutOrStdout()
	return doc.Inspect(func(b *block.Block) bool {
		fmt.Fprintf(out, "(%d,%d) len=%d type=%s deleted=%v\n",
			b.ID.Client, b.ID.Clock, b.Header.ClockLen, b.Header.ContentType, b.Header.Deleted())
		return true
	})
}
