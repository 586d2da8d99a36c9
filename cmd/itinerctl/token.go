package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/itinera/backend/internal/auth"
	"github.com/itinera/backend/internal/domain"
)

var (
	tokenUser   string
	tokenRole   string
	tokenTTL    time.Duration
	tokenSecret string
	tokenIssuer string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Long: `token signs an access token the API accepts in the Authorization header.
It uses the same secret and issuer as the server (JWT_SECRET, JWT_ISSUER).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := firstNonEmpty(tokenSecret, "JWT_SECRET")
		if secret == "" {
			return errors.New("secret is required: pass --secret or set JWT_SECRET")
		}
		issuer := firstNonEmpty(tokenIssuer, "JWT_ISSUER")
		if issuer == "" {
			issuer = "itinera"
		}

		signed, err := auth.NewTokenManager(secret, issuer).Issue(tokenUser, domain.Role(tokenRole), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User id placed in the sub claim")
	tokenCmd.Flags().StringVarP(&tokenRole, "role", "r", string(domain.RoleUser), "Role claim: user or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret (default $JWT_SECRET)")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "", "Issuer claim (default $JWT_ISSUER or itinera)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
