package main

import (
	"fmt"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/config"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <actor-id>",
	Short: "Mint an HS256 token for local development",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

var (
	tokenTTL    time.Duration
	tokenIssuer string
)

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "", "issuer claim (defaults to the first allowed issuer)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secret, err := cfg.HS256Secret()
	if err != nil {
		return err
	}

	issuer := tokenIssuer
	if issuer == "" {
		issuer = cfg.GetAllowedIssuers()[0]
	}

	token, err := auth.IssueHS256(secret, auth.TokenRequest{
		Issuer:   issuer,
		Audience: cfg.JWTAudience,
		ActorID:  args[0],
		TTL:      tokenTTL,
	}, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
