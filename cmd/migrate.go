package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [v1-to-v2|v2-to-v1]",
	Short:     "Convert the collection between scheduler versions",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"v1-to-v2", "v2-to-v1"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveCollectionDir()
		if err != nil {
			return err
		}
		col, err := openCollection(dir)
		if err != nil {
			return err
		}
		defer col.Close()

		sched := col.newScheduler()
		ctx := context.Background()

		switch args[0] {
		case "v1-to-v2":
			if err := sched.MoveToV2(ctx); err != nil {
				return err
			}
		case "v2-to-v1":
			if err := sched.MoveToV1(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown migration direction %q (want v1-to-v2 or v2-to-v1)", args[0])
		}

		fmt.Printf("collection is now running scheduler %s\n", sched.Name())
		return nil
	},
}
