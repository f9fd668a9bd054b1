package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hotcrawl/pkg/logger"
	"hotcrawl/pkg/users"
)

// usersCmd groups the profile list subcommands
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the profile list",
	Long:  `Add, remove, and list the profiles hotcrawl visits on each run.`,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a profile to the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Add(args[0])
	},
}

var usersRemoveCmd = &cobra.Command{
	Use:   "remove <username>",
	Short: "Remove a profile from the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		return store.Remove(args[0])
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		list, err := store.List()
		if err != nil {
			return err
		}

		if len(list) == 0 {
			fmt.Println("No users configured")
			return nil
		}

		fmt.Printf("User list (%d users):\n", len(list))
		for i, u := range list {
			fmt.Printf("  %d. %s\n", i+1, u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersRemoveCmd)
	usersCmd.AddCommand(usersListCmd)
}

// openStore loads configuration and opens the users file
func openStore() (*users.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}

	return users.NewStore(cfg.Output.UsersFile, logger.GetLogger()), nil
}
