package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ntwriter/srscore/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(reviewCmd)
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review due cards",
	Long:  `Pull cards from the queues one at a time and record the answer given for each.`,
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

		return runReviewLoop(col.newScheduler(), os.Stdin, os.Stdout)
	},
}

// runReviewLoop drives one session against r/w so it can be exercised in
// tests without a real terminal attached.
func runReviewLoop(sched *scheduler.Scheduler, r io.Reader, w io.Writer) error {
	ctx := context.Background()
	scanner := bufio.NewScanner(r)
	reviewed := 0

	for {
		card, err := sched.GetCard(ctx)
		if err != nil {
			return err
		}
		if card == nil {
			break
		}

		buttons, err := sched.ButtonCount(card)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "\ncard %d (deck %d, note %d) — queue=%v due=%d\n", card.ID, card.DeckID, card.NoteID, card.Queue, card.Due)
		fmt.Fprintf(w, "%s [1-%d]: ", answerPrompt(buttons), buttons)

		if !scanner.Scan() {
			break
		}
		ease, ok := parseEase(scanner.Text(), buttons)
		if !ok {
			fmt.Fprintln(w, color.YellowString("invalid answer, skipping card"))
			continue
		}

		start := time.Now()
		if err := sched.AnswerCard(ctx, ease, int(time.Since(start).Milliseconds())); err != nil {
			return err
		}
		reviewed++
	}

	if reviewed == 0 {
		fmt.Fprintln(w, color.GreenString("nothing due"))
	} else {
		fmt.Fprintf(w, color.GreenString("reviewed %d card(s)\n"), reviewed)
	}
	return nil
}

func answerPrompt(buttons int) string {
	if buttons == 2 {
		return "1=again 2=good"
	}
	return "1=again 2=hard 3=good 4=easy"
}

func parseEase(raw string, buttons int) (scheduler.Ease, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, false
	}
	if buttons == 2 {
		switch n {
		case 1:
			return scheduler.EaseAgain, true
		case 2:
			return scheduler.EaseGood, true
		}
		return 0, false
	}
	if n > 4 {
		return 0, false
	}
	return scheduler.Ease(n), true
}
