package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mseaton/vaspio/format"
	"github.com/mseaton/vaspio/vasprun"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var earlyStop bool

	cmd := &cobra.Command{
		Use:   "parse <vasprun.xml>",
		Short: "Parse an output stream and dump the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []vasprun.Option
			if earlyStop {
				opts = append(opts, vasprun.WithEarlyStop())
			}
			result, err := vasprun.ParseFile(args[0], opts...)
			if err != nil {
				return fmt.Errorf("parse output stream: %w", err)
			}

			var encoder format.Encoder
			switch outputFormat {
			case "json":
				encoder = format.NewJSONEncoder(os.Stdout)
			case "summary":
				encoder = format.NewSummaryEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if err := encoder.Encode(result); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, summary)")
	cmd.Flags().BoolVar(&earlyStop, "early-stop", false, "stop reading at the eigenvalues section")

	return cmd
}
