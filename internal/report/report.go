package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"deepscan/internal/inference"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Write saves the per-track report: one line per track,
// "{id} --> {pred} ({target})", in sorted id order.
func Write(path string, results inference.ResultTable) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, id := range sortedIDs(results) {
		res := results[id]
		if _, err := fmt.Fprintf(w, "%s --> %s (%.1f)\n", id, formatPred(res.Pred), res.Target); err != nil {
			return fmt.Errorf("failed to write report line: %w", err)
		}
	}
	return w.Flush()
}

// Summary renders the run summary table: track counts, BCE loss and accuracy
// at the decision threshold.
func Summary(out io.Writer, results inference.ResultTable, totalLoss, meanLoss, threshold float64) {
	correct := 0
	flagged := 0
	for _, res := range results {
		fake := float64(res.Pred) > threshold
		if fake {
			flagged++
		}
		if fake == (res.Target > 0.5) {
			correct++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Tracks scored", len(results)},
		{"Flagged fake", fmt.Sprintf("%d (threshold %.2f)", flagged, threshold)},
		{"BCE loss (sum)", fmt.Sprintf("%.4f", totalLoss)},
		{"BCE loss (mean)", fmt.Sprintf("%.4f", meanLoss)},
	})
	if len(results) > 0 {
		t.AppendRow(table.Row{"Accuracy", fmt.Sprintf("%.2f%%", 100*float64(correct)/float64(len(results)))})
	}
	t.Render()
}

func sortedIDs(results inference.ResultTable) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func formatPred(pred float32) string {
	return strconv.FormatFloat(float64(pred), 'f', -1, 32)
}
