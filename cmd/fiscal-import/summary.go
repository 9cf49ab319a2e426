package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

func summaryCmd() *cobra.Command {
	var include []string
	cmd := &cobra.Command{
		Use:   "summary <items.json>",
		Short: "Total items per tax type from extract output or a JSON item list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := parseInclusion(include)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			items, err := readItems(data)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), aggregate.Summarize(items, flags))
		},
	}
	cmd.Flags().StringSliceVar(&include, "include", nil, "inclusion overrides like PARCELAMENTO_SIEFPAR=true")
	return cmd
}

// readItems accepts a bare item array or an object with an "items" member
// (the extract command output).
func readItems(data []byte) ([]entity.CanonicalItem, error) {
	data = bytes.TrimSpace(data)
	var items []entity.CanonicalItem
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped struct {
		Items []entity.CanonicalItem `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// parseInclusion reads TYPE=bool pairs. No pairs means the defaults.
func parseInclusion(pairs []string) (aggregate.Flags, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	flags := aggregate.Flags{}
	for _, p := range pairs {
		name, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("inclusion %q: want TYPE=true|false", p)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("inclusion %q: %w", p, err)
		}
		flags[constants.TaxType(strings.ToUpper(strings.TrimSpace(name)))] = b
	}
	return flags, nil
}
