package main

import (
	"github.com/spf13/cobra"
)

var stateVectorCmd = &cobra.Command{
	Use:   "state-vector <doc-id>",
	Short: "Print a document's current state vector",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateVector,
}

func init() {
	rootCmd.AddCommand(stateVectorCmd)
}

func runStateVector(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	sv, err := doc.StateVector()
	if err != nil {
		return err
	}
	return printStateVector(cmd, sv)
}
