package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpcprobe/rpcprobe/internal/auth"
)

// secretStore opens the credential store behind token_keychain_id.
var secretStore = func() auth.SecretManager { return auth.NewKeychain("rpcprobe") }

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage tokens kept in the OS credential store",
	}
	cmd.AddCommand(newSetTokenCmd(), newRemoveTokenCmd())
	return cmd
}

func newSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token <id>",
		Short: "Store a token read from stdin under id",
		Long: `Reads a bearer token (or client secret) from standard input and stores it
under id. Reference it from the config with auth.token_keychain_id = "<id>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			token := strings.TrimSpace(string(data))
			if token == "" {
				return errors.New("no token on stdin")
			}
			if err := secretStore().SetSecret(args[0], token); err != nil {
				return fmt.Errorf("store token %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored token %q\n", args[0])
			return nil
		},
	}
}

func newRemoveTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-token <id>",
		Short: "Delete the token stored under id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := secretStore().RemoveSecret(args[0]); err != nil {
				return fmt.Errorf("remove token %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed token %q\n", args[0])
			return nil
		},
	}
}
