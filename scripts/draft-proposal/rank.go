package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fosterfinance/deal-assistant/pkg/deals"
	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/scoring"
)

type rankOutput struct {
	Label    string    `yaml:"label"`
	Mode     string    `yaml:"mode"`
	Terms    []string  `yaml:"terms"`
	MaxScore int       `yaml:"max_score"`
	Matches  []rankRow `yaml:"matches"`
}

type rankRow struct {
	Row          int    `yaml:"row"`
	Score        int    `yaml:"score"`
	Requirements string `yaml:"requirements"`
	Objectives   string `yaml:"objectives"`
	Features     string `yaml:"features"`
	Rationale    string `yaml:"rationale"`
}

func newRankCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <scenario>",
		Short: "Show the historic deals that best match a scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable(opts.database)
			if err != nil {
				return err
			}
			set := scoring.SelectContext(strings.Join(args, " "), table, opts.contextSize)

			out := rankOutput{
				Label:    set.Label(),
				Mode:     string(set.Mode),
				Terms:    set.Terms,
				MaxScore: set.MaxScore,
			}
			for _, c := range set.Candidates {
				out.Matches = append(out.Matches, rankRow{
					Row:          c.Record.Index + 1,
					Score:        c.Score,
					Requirements: c.Record.Value(models.ColumnClientRequirements),
					Objectives:   c.Record.Value(models.ColumnClientObjectives),
					Features:     c.Record.Value(models.ColumnProductFeatures),
					Rationale:    c.Record.Value(models.ColumnSelectionRationale),
				})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		},
	}
}

func loadTable(path string) (*models.DealTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer f.Close()

	table, err := deals.Load(f, filepath.Base(path), 0)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return table, nil
}
