package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reorgwal/internal/translate"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan-file>",
	Short: "Translate a plan file into a journal and persist it",
	Long: `plan reads a JSON-encoded translate.Plan (target_folder plus a
flat list of intents) and translates it into a dependency-ordered,
collision-resolved journal, which it saves to the state directory and
prints the job id of.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, _, log, err := loadApp(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read plan file: %w", err)
	}

	var plan translate.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("parse plan file: %w", err)
	}

	j, err := a.Plan(plan)
	if err != nil {
		return err
	}

	counts := j.Counts()
	log.Successf("planned job %s: %d entries", j.JobID, len(j.Entries))
	fmt.Printf("job_id=%s entries=%d pending=%d\n", j.JobID, len(j.Entries), counts.Pending)
	return nil
}
