package main

import (
	"os"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vaspio",
		Short: "Inspect VASP run output streams",
	}

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newIncarCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
