package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ferrous/internal/facts"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print a decoded facts file",
	Long:  `Dump decodes a *.fctb body facts file and prints its tables for debugging front-end exporters`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	payload, err := facts.Decode(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "body %q (schema %d, digest %s)\n", payload.Name, payload.Schema, facts.DigestOf(data))
	fmt.Fprintf(out, "  files:    %d\n", len(payload.Files))
	fmt.Fprintf(out, "  bindings: %d\n", len(payload.Bindings))
	fmt.Fprintf(out, "  scopes:   %d (item scope %d)\n", len(payload.Scopes), payload.ItemScope)
	fmt.Fprintf(out, "  adts:     %d\n", len(payload.Adts))
	fmt.Fprintf(out, "  types:    %d\n", len(payload.Types))
	fmt.Fprintf(out, "  cmts:     %d\n", len(payload.Cmts))
	fmt.Fprintf(out, "  cfg:      %d nodes (entry %d)\n", len(payload.Nodes), payload.Entry)
	fmt.Fprintf(out, "  events:   %d\n", len(payload.Events))

	for i, b := range payload.Bindings {
		name := "?"
		if int(b.Name) <= len(payload.Strings) && b.Name > 0 {
			name = payload.Strings[b.Name-1]
		}
		mut := ""
		if b.Mut != 0 {
			mut = " mut"
		}
		fmt.Fprintf(out, "  binding %d: %s%s (scope %d)\n", i+1, name, mut, b.Scope)
	}
	for i, ev := range payload.Events {
		fmt.Fprintf(out, "  event %d: kind=%d elem=%d cmt=%d\n", i, ev.Kind, ev.Elem, ev.Cmt)
	}
	return nil
}
