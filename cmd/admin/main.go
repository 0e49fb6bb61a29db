// Admin CLI for user and API token management. The HTTP service has no
// signup surface on purpose; owners and their tokens are provisioned
// from here.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/calebhs/linkhive/internal/config"
	"github.com/calebhs/linkhive/internal/db"
	"github.com/calebhs/linkhive/internal/models"
	"github.com/calebhs/linkhive/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "linkhive-admin",
	Short: "Manage linkhive users and API tokens",
}

var createUserCmd = &cobra.Command{
	Use:   "create-user <email>",
	Short: "Create a user and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			userModel := &models.UserModel{Pool: pool}
			user, err := userModel.Create(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
			return nil
		})
	},
}

var createTokenCmd = &cobra.Command{
	Use:   "create-token <user-id>",
	Short: "Issue an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, err := parseUserId(args[0])
		if err != nil {
			return err
		}
		return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			userModel := &models.UserModel{Pool: pool}
			user, err := userModel.GetById(ctx, userId)
			if err != nil {
				return err
			}
			tokenModel := &models.TokenModel{Pool: pool}
			token, err := tokenModel.Create(ctx, user.ID)
			if err != nil {
				return err
			}
			// The plaintext token is only available here; the server
			// stores a hash.
			fmt.Printf("token %d for %s: %s\n", token.ID, user.Email, token.Token)
			return nil
		})
	},
}

var revokeTokenCmd = &cobra.Command{
	Use:   "revoke-token <user-id> <token-id>",
	Short: "Revoke an API token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, err := parseUserId(args[0])
		if err != nil {
			return err
		}
		tokenId, err := parseTokenId(args[1])
		if err != nil {
			return err
		}
		return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			tokenModel := &models.TokenModel{Pool: pool}
			if err := tokenModel.Delete(ctx, userId, tokenId); err != nil {
				return err
			}
			fmt.Println("token revoked")
			return nil
		})
	},
}

func parseUserId(arg string) (types.UserId, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return types.UserId(id), nil
}

func parseTokenId(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q", arg)
	}
	return id, nil
}

func withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadEnvConfig()
	if err != nil {
		return err
	}
	pool, err := db.Open(cfg.PSQL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(context.Background(), pool)
}

func main() {
	rootCmd.AddCommand(createUserCmd, createTokenCmd, revokeTokenCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
