package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mseaton/vaspio/format"
	"github.com/mseaton/vaspio/vasprun"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <vasprun.xml>",
		Short: "Print a convergence and energy snapshot of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := vasprun.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("parse output stream: %w", err)
			}
			encoder := format.NewSummaryEncoder(os.Stdout)
			if err := encoder.Encode(result); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}
	return cmd
}
