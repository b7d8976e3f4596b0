package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "cashledger-cli",
		Short:         "CashLedger CLI tool",
		Long:          `A command line interface for interacting with the CashLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", envOr("CASHLEDGER_URL", "http://localhost:8080"), "Base URL of the CashLedger API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.token, "token", os.Getenv("CASHLEDGER_TOKEN"), "Bearer token (when the server has auth enabled)")
	flags.StringVar(&opts.userID, "user-id", "cli", "X-User-ID header sent when no token is given")
	flags.StringVar(&opts.role, "role", "viewer", "X-User-Role header sent when no token is given")
	flags.StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency-Key for mutating requests (default: random UUID)")

	rootCmd.AddCommand(
		tokenCmd(),
		banksCmd(opts),
		registersCmd(opts),
		saleCmd(opts),
		chequesCmd(opts),
		cashBookCmd(opts),
		reconcileCmd(opts),
		auditCmd(opts),
	)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
