package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/loopworks/cfgbench/cli/keystore"
)

func (a *App) newKeysCommand() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long:  `Manage API keys. Keys are stored in an encrypted file and never printed.`,
	}

	keys.AddCommand(&cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store an API key",
		Long:  `Store an API key under a name (e.g. openai). Without a value argument the key is prompted without echo.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  a.runKeysSet,
	})
	keys.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Check whether a key is stored",
		Long:  `Check whether a key is stored. The value itself is never shown.`,
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysGet,
	})
	keys.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored key names",
		RunE:  a.runKeysList,
	})
	keys.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored key",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysDelete,
	})

	return keys
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	var apiKey string
	if len(args) == 2 {
		apiKey = args[1]
	} else {
		var err error
		apiKey, err = a.promptKey(name)
		if err != nil {
			return err
		}
	}

	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Set(name, apiKey); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s stored.\n", name)
	return nil
}

// promptKey reads a key without echo on a terminal, falling back to a plain
// line read for piped input.
func (a *App) promptKey(name string) (string, error) {
	fmt.Fprintf(a.stdout, "Enter API key for %s: ", name)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		keyBytes, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		fmt.Fprintln(a.stdout)
		return string(keyBytes), nil
	}

	reader := bufio.NewReader(a.stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *App) runKeysGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if _, err := ks.Get(name); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no key stored for %s", name)
		}
		return fmt.Errorf("failed to read key: %w", err)
	}

	fmt.Fprintf(a.stdout, "A key is stored for %s.\n", name)
	return nil
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API keys stored.")
		return nil
	}

	fmt.Fprintln(a.stdout, "Stored keys:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}

	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Delete(name); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no key stored for %s", name)
		}
		return fmt.Errorf("failed to delete key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s deleted.\n", name)
	return nil
}
