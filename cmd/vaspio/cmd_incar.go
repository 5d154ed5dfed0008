package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mseaton/vaspio/incar"
)

func newIncarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incar <INCAR>",
		Short: "Dump the typed values of an input parameter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := incar.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("parse input file: %w", err)
			}
			for _, key := range file.Keys() {
				val, _ := file.Get(key)
				fmt.Printf("%s = %v (%T)\n", key, val, val)
			}
			return nil
		},
	}
	return cmd
}
