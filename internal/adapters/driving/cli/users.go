package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
)

var (
	userEmail string
	userAdmin bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Create a user account",
	Long:  `Creates an account. The password is prompted for, never passed on the command line.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersAdd,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE:  runUsersList,
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate [user-id]",
	Short: "Deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDeactivate,
}

var usersActivateCmd = &cobra.Command{
	Use:   "activate [user-id]",
	Short: "Reactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersActivate,
}

func init() {
	usersAddCmd.Flags().StringVarP(&userEmail, "email", "e", "", "email address (required)")
	usersAddCmd.Flags().BoolVar(&userAdmin, "admin", false, "grant the admin role")
	usersAddCmd.MarkFlagRequired("email") //nolint:errcheck

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeactivateCmd)
	usersCmd.AddCommand(usersActivateCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := promptPassword(cmd)
	if err != nil {
		return err
	}

	role := domain.RoleUser
	if userAdmin {
		role = domain.RoleAdmin
	}

	user, err := userService.Create(cmd.Context(), username, userEmail, password, role)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("username %q is taken", username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	cmd.Printf("Created %s user %s (%s)\n", user.Role, user.Username, user.ID)
	return nil
}

// promptPassword reads and confirms a password without echoing it.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt requires a terminal")
	}

	cmd.Print("Password: ")
	first, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	cmd.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	users, err := userService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		state := "active"
		if !user.Active {
			state = "inactive"
		}
		cmd.Printf("  %s  %-16s %-8s %s\n", user.ID, user.Username, user.Role, state)
	}

	cmd.Printf("Total: %d users\n", len(users))
	return nil
}

func runUsersDeactivate(cmd *cobra.Command, args []string) error {
	if err := userService.SetActive(cmd.Context(), args[0], false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	cmd.Printf("User %s deactivated.\n", args[0])
	return nil
}

func runUsersActivate(cmd *cobra.Command, args []string) error {
	if err := userService.SetActive(cmd.Context(), args[0], true); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}
	cmd.Printf("User %s activated.\n", args[0])
	return nil
}
