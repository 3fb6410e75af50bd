package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "officeflow-api",
	Short: "OfficeFlow API - workspace, office and room access control",
	Long:  `An HTTP API over the Workspace → Office → Room hierarchy with role-based access control and transactional storage.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
