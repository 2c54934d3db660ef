package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"lectern/internal/deps"
	"lectern/internal/orchestrator"
	"lectern/internal/reconcile"
)

// renderRunSummary prints the download run outcome: a rounded table on a
// terminal, plain lines when output is piped.
func renderRunSummary(w io.Writer, outputDir string, report orchestrator.Report) {
	rows := [][]string{
		{"Succeeded", strconv.Itoa(len(report.Succeeded)), formatNumbers(report.Succeeded)},
		{"Skipped", strconv.Itoa(len(report.Skipped)), formatNumbers(report.Skipped)},
		{"Failed", strconv.Itoa(len(report.Failed)), formatFailures(report)},
	}
	if len(report.Unmerged) > 0 {
		rows = append(rows, []string{"Unmerged", strconv.Itoa(len(report.Unmerged)), formatNumbers(report.Unmerged)})
	}

	if stdoutIsTerminal(w) {
		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Outcome", "Count", "Recordings"})
		for _, row := range rows {
			tw.AppendRow(table.Row{row[0], row[1], row[2]})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		})
		fmt.Fprintln(w, tw.Render())
	} else {
		for _, row := range rows {
			fmt.Fprintf(w, "%s: %s", row[0], row[1])
			if row[2] != "" {
				fmt.Fprintf(w, " (%s)", row[2])
			}
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "Recordings saved to %s\n", outputDir)
}

// renderMergeSummary prints the maintenance pass outcome.
func renderMergeSummary(w io.Writer, outputDir string, result reconcile.Result) {
	if result.MergedCount() > 0 {
		fmt.Fprintf(w, "Merged: %s\n", formatNumbers(result.Merged))
	}
	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "Failed (fragments kept): %s\n", formatNumbers(result.Failed))
	}
	for _, unpaired := range sortedUnpaired(result.Unpaired) {
		fmt.Fprintf(w, "Recording %02d: %s\n", unpaired.Number, unpaired.Reason)
	}
	if result.MergedCount() == 0 && len(result.Failed) == 0 && len(result.Unpaired) == 0 {
		fmt.Fprintln(w, "Nothing to merge")
	}
	fmt.Fprintf(w, "Recordings saved to %s\n", outputDir)
}

func renderDepsTable(w io.Writer, statuses []deps.Status) {
	if stdoutIsTerminal(w) {
		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Tool", "Available", "Detail"})
		for _, status := range statuses {
			tw.AppendRow(table.Row{status.Name, yesNo(status.Available), status.Detail})
		}
		fmt.Fprintln(w, tw.Render())
		return
	}
	for _, status := range statuses {
		fmt.Fprintf(w, "%s: available=%s", status.Name, yesNo(status.Available))
		if status.Detail != "" {
			fmt.Fprintf(w, " (%s)", status.Detail)
		}
		fmt.Fprintln(w)
	}
}

func formatNumbers(nums []int) string {
	if len(nums) == 0 {
		return ""
	}
	parts := make([]string, len(nums))
	for i, num := range nums {
		parts[i] = strconv.Itoa(num)
	}
	return strings.Join(parts, ", ")
}

func formatFailures(report orchestrator.Report) string {
	if len(report.Failed) == 0 {
		return ""
	}
	parts := make([]string, len(report.Failed))
	for i, num := range report.Failed {
		if reason := report.FailureReasons[num]; reason != "" {
			parts[i] = fmt.Sprintf("%d (%s)", num, reason)
		} else {
			parts[i] = strconv.Itoa(num)
		}
	}
	return strings.Join(parts, ", ")
}

func sortedUnpaired(unpaired []reconcile.Unpaired) []reconcile.Unpaired {
	sorted := make([]reconcile.Unpaired, len(unpaired))
	copy(sorted, unpaired)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	return sorted
}

func stdoutIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
