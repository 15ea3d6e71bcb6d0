package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reorgwal/internal/executor"
)

var executeCmd = &cobra.Command{
	Use:   "execute <job-id>",
	Short: "Execute a previously planned journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecute,
}

func init() {
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
	a, _, _, err := loadApp(cmd)
	if err != nil {
		return err
	}

	j, err := a.Load(args[0])
	if err != nil {
		return err
	}

	total := uint64(len(j.Entries))
	progress := func(processed, _ uint64) {
		fmt.Printf("progress: %s / %s entries\n", humanize.Comma(int64(processed)), humanize.Comma(int64(total)))
	}

	result, err := a.Execute(context.Background(), j, progress)
	if err != nil {
		return err
	}

	printResult(result)
	if !result.Success() {
		return fmt.Errorf("execution had %d failure(s)", result.Failed)
	}
	return nil
}

func printResult(result executor.Result) {
	fmt.Printf(
		"completed=%s skipped=%s renamed=%s failed=%s\n",
		humanize.Comma(int64(result.Completed)),
		humanize.Comma(int64(result.Skipped)),
		humanize.Comma(int64(result.Renamed)),
		humanize.Comma(int64(result.Failed)),
	)
	for _, note := range result.SkipNotes {
		fmt.Println("  skip:", note)
	}
	for _, note := range result.Errors {
		fmt.Println("  error:", note)
	}
}
