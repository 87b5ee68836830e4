// Package main provides the gene-api server command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gene-api",
		Short:        "Chromosome 21 gene lookup service",
		Long:         "Serves paginated, filterable queries over a Biomart gene export.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("database", "chr21.duckdb",
		"Path to the DuckDB database file")
	root.PersistentFlags().String("data", "mart_export.txt",
		"Path to the Biomart export used to seed the store")
	viper.BindPFlag("database", root.PersistentFlags().Lookup("database"))
	viper.BindPFlag("data", root.PersistentFlags().Lookup("data"))

	cobra.OnInitialize(initConfig)

	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// initConfig wires the GENE_API_* environment and ~/.gene-api.yaml into
// viper. A missing config file is fine.
func initConfig() {
	viper.SetEnvPrefix("GENE_API")
	viper.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".gene-api")
		viper.SetConfigType("yaml")
		_ = viper.ReadInConfig()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gene-api version %s (%s) built %s\n", version, commit, date)
		},
	}
}
