package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ntwriter/srscore/internal/deckconfig"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new collection",
	Long:  `Create the .srscore directory, write the default config, and seed a "Default" deck.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveCollectionDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := deckconfig.InitConfigFromDirectory(dir); err != nil {
			return err
		}

		col, err := openCollection(dir)
		if err != nil {
			return err
		}
		defer col.Close()

		ctx := context.Background()
		deck, err := col.decks.CreateDeck(ctx, "Default", false, "default")
		if err != nil {
			return err
		}

		fmt.Printf("Initialized collection at %s (default deck id %d)\n", dir, deck.ID)
		return nil
	},
}
