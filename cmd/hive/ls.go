package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List the keys under path, or the value itself if path is a leaf",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			doc, err := openDoc()
			if err != nil {
				return err
			}
			keys, leaf, err := doc.List(path)
			if err != nil {
				return err
			}
			if keys == nil {
				b, err := json.Marshal(leaf)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			sort.Strings(keys)
			w := table.NewWriter()
			w.SetOutputMirror(cmd.OutOrStdout())
			w.AppendHeader(table.Row{"Key", "Kind"})
			for _, k := range keys {
				v, err := doc.Get(joinPath(path, k))
				if err != nil {
					return err
				}
				w.AppendRow(table.Row{k, kindOf(v)})
			}
			w.Render()
			return nil
		},
	}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "/" + key
}

func kindOf(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
