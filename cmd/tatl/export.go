package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a full snapshot of the ledger",
	RunE:  runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format (yaml or json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
}

type exportedTask struct {
	Task     models.Task          `json:"task" yaml:"task"`
	Stage    models.Stage         `json:"stage" yaml:"stage"`
	Sessions []models.Session     `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	Wait     *models.ExternalWait `json:"external_wait,omitempty" yaml:"external_wait,omitempty"`
}

type exportDoc struct {
	ExportedAt time.Time      `json:"exported_at" yaml:"exported_at"`
	Queue      []int64        `json:"queue" yaml:"queue"`
	Tasks      []exportedTask `json:"tasks" yaml:"tasks"`
}

func runExport(cmd *cobra.Command, args []string) error {
	views, err := svc.Overview()
	if err != nil {
		return err
	}

	doc := exportDoc{ExportedAt: time.Now().UTC().Truncate(time.Second)}

	positions := map[int]int64{}
	for _, v := range views {
		if v.Position >= 0 {
			positions[v.Position] = v.Task.ID
		}
	}
	doc.Queue = make([]int64, len(positions))
	for pos, id := range positions {
		doc.Queue[pos] = id
	}

	for _, v := range views {
		sessions, err := svc.Sessions(v.Task.ID)
		if err != nil {
			return err
		}
		doc.Tasks = append(doc.Tasks, exportedTask{
			Task:     v.Task,
			Stage:    v.Stage,
			Sessions: sessions,
			Wait:     v.Wait,
		})
	}

	var out []byte
	switch exportFormat {
	case "yaml":
		out, err = yaml.Marshal(doc)
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if exportOut == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(exportOut, out, 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", exportOut)
	return nil
}
