package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ntwriter/srscore/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show due counts",
	Long:  `Print the new/learning/review counts across the collection's active decks.`,
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
		ds, err := sched.Stats(context.Background())
		if err != nil {
			return err
		}

		total := ds.New + ds.Learning + ds.Review
		if total == 0 {
			fmt.Println(color.GreenString("nothing due"))
		} else {
			fmt.Print(highlightDue(ds))
		}
		fmt.Print(ds.ToYAML())
		return nil
	},
}

func highlightDue(ds scheduler.DeckStats) string {
	f := color.New(color.FgYellow)
	return f.Sprintf("due now: %d new, %d learning, %d review\n", ds.New, ds.Learning, ds.Review)
}
