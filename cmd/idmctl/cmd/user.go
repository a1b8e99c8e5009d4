package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pilab-dev/identity-store/domain"
)

var userCmd = &cobra.Command{
	Use:     "user",
	Short:   "Manage users",
	Aliases: []string{"users"},
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user record",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if name == "" {
			return errors.New("user name is required via --name flag")
		}

		store, teardown, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer teardown()

		// Duplicate detection is caller discipline; the store itself upserts
		// unconditionally.
		existing, err := store.FindByNormalizedUserName(cmd.Context(), domain.Normalize(name))
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("a user named %q already exists (id %s)", name, existing.ID)
		}

		user := &domain.User{
			UserName:           name,
			NormalizedUserName: domain.Normalize(name),
			Email:              email,
			NormalizedEmail:    domain.Normalize(email),
		}
		if err := store.CreateUser(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Printf("created user %s\n", user.ID)
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Print a user record as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, teardown, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer teardown()

		user, err := store.FindByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		return yaml.NewEncoder(os.Stdout).Encode(user)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, teardown, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer teardown()

		user, err := store.FindByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %q not found", args[0])
		}
		if err := store.DeleteUser(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Printf("deleted user %s\n", user.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		pageSize, _ := cmd.Flags().GetInt("page-size")

		store, teardown, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer teardown()

		pageToken := ""
		for {
			users, next, err := store.ListUsers(cmd.Context(), pageToken, pageSize)
			if err != nil {
				return err
			}
			for _, user := range users {
				fmt.Printf("%s\t%s\t%s\n", user.ID, user.UserName, user.Email)
			}
			if next == "" {
				return nil
			}
			pageToken = next
		}
	},
}

var userClaimsCmd = &cobra.Command{
	Use:   "claims <user-id>",
	Short: "List a user's claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, teardown, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer teardown()

		claims, err := store.GetClaims(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, claim := range claims {
			fmt.Printf("%s\t%s\n", claim.ClaimType, claim.ClaimValue)
		}
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("name", "", "User name (required)")
	userCreateCmd.Flags().String("email", "", "Email address")
	userListCmd.Flags().Int("page-size", 50, "Page size for listing users")

	userCmd.AddCommand(userCreateCmd, userGetCmd, userDeleteCmd, userListCmd, userClaimsCmd)
	rootCmd.AddCommand(userCmd)
}
