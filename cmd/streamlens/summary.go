package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"streamlens/internal/pipeline"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

// writeRunSummary renders the end-of-run counts the way a human checks a run:
// what came in, how the keys settled, what landed on disk.
func writeRunSummary(w io.Writer, title string, report *pipeline.Report) {
	for _, line := range summaryTitle(title, shouldColorize(w)) {
		fmt.Fprintln(w, line)
	}

	rows := [][]string{
		{"Rows loaded", strconv.Itoa(report.RowsLoaded)},
		{"Rows dropped", strconv.Itoa(report.RowsDropped)},
		{"Distinct titles", strconv.Itoa(report.DistinctKeys)},
		{"Matched", strconv.Itoa(report.Matched)},
		{"No match", strconv.Itoa(report.NoMatch)},
		{"Failed", strconv.Itoa(report.Failed)},
		{"Reused from checkpoint", strconv.Itoa(report.Reused)},
		{"Rows written", strconv.Itoa(report.RowsWritten)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	fmt.Fprintf(w, "Dataset: %s\n", report.DatasetPath)
	for _, extract := range report.Extracts {
		fmt.Fprintf(w, "Extract: %s (%d rows)\n", extract.Path, extract.Rows)
	}
	if report.Failed > 0 {
		fmt.Fprintf(w, "Failed titles recorded in %s; run `streamlens retry-failed` to re-attempt them.\n", report.FailedKeysPath)
	}
}

func summaryTitle(title string, colorize bool) []string {
	line := title
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
