package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/push-registry/internal/infrastructure/repositories"
)

var ValidateStoreCmd = &cobra.Command{
	Use:   "validate-store <file>",
	Short: "Check a subscriptions file before starting the server",
	Long:  "Load a subscriptions file with the same rules the server applies at startup and print its size",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateStore,
}

func runValidateStore(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("subscriptions file %s does not exist", path)
		}
		return err
	}

	repo := repositories.NewFileSubscriptionRepository(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := repo.Load(cmd.Context()); err != nil {
		return err
	}

	identities, tokens := repo.Stats(cmd.Context())
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d identities, %d tokens\n", path, identities, tokens)
	return err
}
