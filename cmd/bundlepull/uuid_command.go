package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bundlepull/internal/ccuuid"
)

func newUUIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "uuid <compact>...",
		Short:       "Expand compact asset identifiers to canonical form",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]any, 0, len(args))
			for _, arg := range args {
				canonical := ccuuid.Decode(arg)
				rows = append(rows, []any{arg, canonical, ccuuid.Prefix(canonical)})
			}
			columns := []column{textCol("Compact"), textCol("Canonical"), textCol("Shard")}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows, nil))
			return nil
		},
	}
}
