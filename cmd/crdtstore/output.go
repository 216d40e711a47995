package main

import (
	"fmt"
	"sort"

	"github.com/cshekharsharma/crdtstore/id"
	"github.com/spf13/cobra"
)

// printStateVector prints one "client=N clock=N" line per client, sorted
// for stable output, to cmd's stdout.
func printStateVector(cmd *cobra.Command, sv *id.StateVector) error {
	out := cmd.OutOrStdout()
	clients := sv.Clients()
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })
	for _, c := range clients {
		if _, err := fmt.Fprintf(out, "client=%d clock=%d\n", c, sv.Get(c)); err != nil {
			return err
		}
	}
	return nil
}
