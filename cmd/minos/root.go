package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// A .env file can preset the flags' environment defaults (MINOS_PORT,
// MINOS_DB, ...). Loaded during variable initialization so it lands
// before the flag declarations read the environment. Its absence is
// fine.
var _ = godotenv.Load()

// rootCmd represents the base command when called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "minos",
	Short: "MinOS runs a simulated teaching kernel.",
	Long: `MinOS runs a simulated teaching kernel: a physical page ` +
		`allocator, per-process page tables, fork and exit, and a ` +
		`round-robin scheduler, driven by simulated user programs.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
}

// envDefault returns the environment value for key, or the fallback.
func envDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return fallback
}
