package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/specdeck/specdeck/cli"
	"github.com/specdeck/specdeck/pkg/cache"
	"github.com/specdeck/specdeck/pkg/data"
	"github.com/specdeck/specdeck/pkg/events"
)

// statusSummary is the JSON shape of 'specdeck status --json'.
type statusSummary struct {
	Root    string          `json:"root"`
	Specs   []specSummary   `json:"specs"`
	Fixes   []entitySummary `json:"fixes"`
	Recaps  []entitySummary `json:"recaps"`
	Tracked int             `json:"tracked"`
}

type specSummary struct {
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	Tasks     int     `json:"tasks"`
	Completed int     `json:"completed"`
	Progress  float64 `json:"progress"`
}

type entitySummary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// NewStatusCmd performs a one-shot scan of the workflow directory and prints
// a summary of every tracked spec, fix and recap.
func NewStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Scan the workflow directory and summarize its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}

			root, _ := cmd.Flags().GetString("root")
			if root == "" {
				root = cfg.Workflow.Dir
			}
			root, err = filepath.Abs(root)
			if err != nil {
				return err
			}

			bus := events.NewBus()
			manager := data.New(cfg, root, bus, cache.New(time.Minute))
			defer manager.Close()

			if err := manager.Initialize(); err != nil {
				return cli.NewErrorHandler(opts.Verbose).Handle(err)
			}

			summary := buildSummary(manager, root)

			if opts.JSONOutput {
				out, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printSummary(summary)
			return nil
		},
	}

	statusCmd.Flags().String("root", "", "Workflow directory to scan (defaults to workflow.dir)")
	return statusCmd
}

func buildSummary(manager *data.Manager, root string) statusSummary {
	summary := statusSummary{
		Root:    root,
		Tracked: manager.EntityCount(),
	}

	for _, spec := range manager.AllSpecs() {
		s := specSummary{
			Name:   spec.Name,
			Title:  spec.Metadata.Title,
			Status: spec.Metadata.Status,
		}
		if tasks, ok := manager.TasksByName(spec.Name); ok {
			s.Tasks = len(tasks.Tasks)
			s.Completed = tasks.Completed()
			s.Progress = tasks.Progress()
		}
		summary.Specs = append(summary.Specs, s)
	}

	for _, fix := range manager.AllFixes() {
		summary.Fixes = append(summary.Fixes, entitySummary{Name: fix.Name, Title: fix.Metadata.Title})
	}
	for _, recap := range manager.AllRecaps() {
		summary.Recaps = append(summary.Recaps, entitySummary{Name: recap.Name, Title: recap.Metadata.Title})
	}
	return summary
}

func printSummary(summary statusSummary) {
	fmt.Printf("Workflow: %s (%d entities)\n", summary.Root, summary.Tracked)

	if len(summary.Specs) > 0 {
		fmt.Printf("\nSpecs:\n")
		for _, s := range summary.Specs {
			if s.Tasks > 0 {
				fmt.Printf("  %-30s %-12s %d/%d tasks (%.0f%%)\n", s.Name, s.Status, s.Completed, s.Tasks, s.Progress*100)
			} else {
				fmt.Printf("  %-30s %-12s\n", s.Name, s.Status)
			}
		}
	}
	if len(summary.Fixes) > 0 {
		fmt.Printf("\nFixes:\n")
		for _, f := range summary.Fixes {
			fmt.Printf("  %-30s %s\n", f.Name, f.Title)
		}
	}
	if len(summary.Recaps) > 0 {
		fmt.Printf("\nRecaps:\n")
		for _, r := range summary.Recaps {
			fmt.Printf("  %-30s %s\n", r.Name, r.Title)
		}
	}
}
