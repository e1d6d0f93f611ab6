package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys for LLM and embedding providers",
	Long: `Store and manage API keys for the chat and embedding providers.

Keys are stored in ~/.docchat/credentials.json and used as a fallback
when the provider's environment variable is not set.`,
}

var authSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store an API key for a provider",
	Args:      cobra.ExactArgs(1),
	ValidArgs: auth.Providers(),
	RunE:      runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have a key available",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored keys",
	Long: `Remove the stored key for a provider.

If no provider is specified, removes all stored keys.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	provider := args[0]
	if auth.EnvVar(provider) == "" {
		return fmt.Errorf("unknown provider %q (valid: %s)", provider, strings.Join(auth.Providers(), ", "))
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("%s API key", provider),
		Mask:  '*',
	}
	key, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}

	if err := auth.SetAPIKey(provider, strings.TrimSpace(key)); err != nil {
		return err
	}
	fmt.Printf("%s key stored.\n", provider)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	path, err := auth.CredentialPath()
	if err != nil {
		return err
	}
	fmt.Printf("Credentials file: %s\n\n", path)

	fmt.Println("Provider     Status")
	fmt.Println("--------     ------")
	for _, p := range auth.Providers() {
		switch auth.Source(p) {
		case "env":
			fmt.Printf("%-12s configured (env var %s)\n", p, auth.EnvVar(p))
		case "stored":
			fmt.Printf("%-12s configured (stored)\n", p)
		default:
			fmt.Printf("%-12s not configured\n", p)
		}
	}
	fmt.Printf("%-12s available (local)\n", "ollama")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	provider := ""
	if len(args) == 1 {
		provider = args[0]
	}
	if err := auth.Remove(provider); err != nil {
		return err
	}
	if provider == "" {
		fmt.Println("All stored keys removed.")
	} else {
		fmt.Printf("%s key removed.\n", provider)
	}
	return nil
}
