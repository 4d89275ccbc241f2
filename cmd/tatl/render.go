package main

import (
	"fmt"
	"time"

	"github.com/da11an/tatl-sub000/internal/ledger"
	"github.com/da11an/tatl-sub000/internal/models"
	"github.com/fatih/color"
)

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

// printEffects lists the side effects an operation carried out, one
// indented line each.
func printEffects(effects []ledger.Effect) {
	for _, e := range effects {
		fmt.Printf("  %s %s\n", color.YellowString("↳"), e)
	}
}

func printChanges(changes []ledger.SessionChange) {
	for _, c := range changes {
		fmt.Printf("  %s %s\n", color.YellowString("↳"), c)
	}
}

func stageString(stage models.Stage) string {
	switch stage {
	case models.StageActive:
		return color.GreenString(string(stage))
	case models.StageQueued:
		return color.CyanString(string(stage))
	case models.StageExternal:
		return color.MagentaString(string(stage))
	case models.StageStalled:
		return color.YellowString(string(stage))
	case models.StageCompleted:
		return color.HiGreenString(string(stage))
	case models.StageCancelled:
		return color.RedString(string(stage))
	default:
		return string(stage)
	}
}

// formatDur renders a duration the way the ledger reads: whole minutes,
// hours carried.
func formatDur(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

func formatTS(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func formatTSPtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTS(*t)
}
