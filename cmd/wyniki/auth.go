package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"wyniki/pkg/auth"
	"wyniki/pkg/ui"
)

var logoutAll bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored portal logins",
	Long: `Store portal logins in the system keychain, or in an encrypted file when no
keychain is available.

The SMS code is never stored: it is typed into the browser on every crawl.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [account-id]",
	Short: "Store a portal login",
	Example: `  # Prompt for the account ID and password
  wyniki auth login

  # Prompt only for the password
  wyniki auth login 12345678901`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [account-id]",
	Short: "Remove a stored portal login",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored portal logins",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored login")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var id string
	if len(args) > 0 {
		id = strings.TrimSpace(args[0])
	} else {
		fmt.Print("Account ID (PESEL or patient number): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read account ID: %w", err)
		}
		id = strings.TrimSpace(input)
	}
	if id == "" {
		return errors.New("account ID is required")
	}

	fmt.Print("Password: ")
	password, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password is required")
	}

	if _, err := manager.Retrieve(id); err == nil {
		ui.PrintWarning("Replacing the stored login for " + id)
	}

	if err := manager.Store(&auth.Account{AccountID: id, Password: password}); err != nil {
		return err
	}

	ui.PrintSuccess("Login stored for " + id)
	fmt.Println("\nStart a crawl with:")
	fmt.Printf("  wyniki crawl --account-id %s\n", id)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove stored logins: %w", err)
		}
		ui.PrintSuccess("All stored logins removed")
		return nil
	}

	if len(args) == 0 {
		return errors.New("specify an account ID or --all")
	}

	id := strings.TrimSpace(args[0])
	if err := manager.Delete(id); err != nil {
		return fmt.Errorf("failed to remove login %s: %w", id, err)
	}
	ui.PrintSuccess("Login removed: " + id)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list logins: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored logins", "use 'wyniki auth login' to add one")
		return nil
	}

	t := ui.NewTable(os.Stdout)
	t.SetTitle("Stored logins")
	t.AppendHeader(table.Row{"#", "Account ID", "Password", "Last modified"})
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		t.AppendRow(table.Row{
			i + 1,
			sanitized.AccountID,
			sanitized.Password,
			sanitized.LastModified.Format("2006-01-02 15:04:05"),
		})
	}
	t.Render()
	return nil
}

// readPassword reads a password from stdin without echoing
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Piped input
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
