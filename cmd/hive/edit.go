package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hivegraph/hivecore/hiveconf"
)

func newEditCmd() *cobra.Command {
	var fromFile string
	var useEditor bool

	cmd := &cobra.Command{
		Use:   "edit path (value | -f file | --editor)",
		Short: "Set the value at path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			doc, err := openDoc()
			if err != nil {
				return err
			}

			var raw []byte
			switch {
			case useEditor:
				raw, err = editInEditor(doc, path)
				if err != nil {
					return err
				}
				if raw == nil {
					// No-op: the edited value is unchanged.
					return nil
				}
			case fromFile != "":
				raw, err = os.ReadFile(fromFile)
				if err != nil {
					return err
				}
			case len(args) == 2:
				raw = []byte(args[1])
			default:
				return fmt.Errorf("edit requires a value, -f file, or --editor")
			}

			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("parsing value as JSON: %w", err)
			}
			if err := doc.Set(path, value); err != nil {
				return err
			}
			return doc.Save()
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read the new value from file")
	cmd.Flags().BoolVar(&useEditor, "editor", false, "edit the current value in $VISUAL or $EDITOR")
	return cmd
}

// editInEditor spawns the user's editor on a temp file seeded with the
// current value at path, retrying on JSON parse failure, aborting on an
// empty file, and returning (nil, nil) if the saved value is unchanged
// from the original — the "no change" skip per the edit command's
// documented quirk, compared via hiveconf.SameValue.
func editInEditor(doc *hiveconf.Doc, path string) ([]byte, error) {
	current, err := doc.Get(path)
	if err != nil {
		return nil, err
	}
	original, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "hive-edit-*.json")
	if err != nil {
		return nil, err
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if _, err := f.Write(original); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	for {
		c := exec.Command(editor, tmpPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return nil, fmt.Errorf("editor exited with an error: %w", err)
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return nil, err
		}
		if isBlank(edited) {
			return nil, fmt.Errorf("edit aborted: file is empty")
		}

		var value any
		if err := json.Unmarshal(edited, &value); err != nil {
			fmt.Fprintf(os.Stderr, "invalid JSON: %v (re-opening editor)\n", err)
			continue
		}

		if hiveconf.SameValue(current, value) {
			return nil, nil
		}
		return edited, nil
	}
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return false
		}
	}
	return true
}
