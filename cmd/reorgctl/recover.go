package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Discover an incomplete journal and resume, roll back, or discard it",
	Long: `recover looks for the most recently touched journal that never
reached completion (crash, kill, power loss) and, if one exists, prompts
the operator to resume it forward, roll it back, or discard it outright.
With --action set, the choice is made non-interactively.`,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().String("action", "", "skip the prompt: resume|rollback|discard")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	a, _, log, err := loadApp(cmd)
	if err != nil {
		return err
	}

	j, info, err := a.Discover()
	if err != nil {
		return err
	}
	if j == nil {
		fmt.Println("no incomplete journal found")
		return nil
	}

	fmt.Printf("incomplete journal job=%s target=%s\n", info.JobID, info.TargetFolder)
	fmt.Printf("  pending=%d in_progress=%d complete=%d failed=%d skipped=%d\n",
		info.Counts.Pending, info.Counts.InProgress, info.Counts.Complete, info.Counts.Failed, info.Counts.Skipped)
	for _, desc := range info.PendingDescriptions {
		fmt.Println("  unfinished:", desc)
	}

	action, _ := cmd.Flags().GetString("action")
	if action == "" {
		action = promptAction()
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "resume":
		counts, err := a.Resume(ctx, j)
		if err != nil {
			return err
		}
		log.Successf("resumed job %s", info.JobID)
		fmt.Printf("resume complete: complete=%d failed=%d skipped=%d\n", counts.Complete, counts.Failed, counts.Skipped)
		return nil
	case "rollback":
		if err := a.Rollback(ctx, j); err != nil {
			return err
		}
		log.Successf("rolled back job %s", info.JobID)
		fmt.Println("rollback complete")
		return nil
	case "discard":
		if err := a.Discard(j); err != nil {
			return err
		}
		fmt.Println("journal discarded")
		return nil
	default:
		return fmt.Errorf("unrecognized action %q (expected resume, rollback, or discard)", action)
	}
}

func promptAction() string {
	fmt.Print("resume, rollback, or discard? [resume] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return "resume"
	}
	return line
}
