package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agentstation/assessmentsync/pkg/differ"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// ResultData is the property/value table of a run.
func ResultData(r *pkgsync.Result) Data {
	rows := [][]string{
		{"Run", r.RunID},
		{"Started", r.StartedAt.Time.Format(time.RFC3339)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
		{"Status", strconv.Itoa(int(r.Status))},
	}
	if r.DryRun {
		rows = append(rows, []string{"Dry Run", "yes"})
	}
	if r.Skipped != "" {
		rows = append(rows, []string{"Skipped", r.Skipped + " not defined"})
	}
	if r.Error != "" {
		rows = append(rows, []string{"Error", r.Error})
	}
	for _, c := range []struct {
		name string
		n    int
	}{
		{"Internal", r.Internal},
		{"External", r.External},
		{"Invalid", r.Invalid},
		{"Matched", r.Matched},
		{"Unmatched", r.Unmatched},
		{"Orphans", r.Orphans},
		{"Filtered", r.Filtered},
		{"Assignments", r.Assignments},
		{"Writes", r.Writes},
	} {
		rows = append(rows, []string{c.name, strconv.Itoa(c.n)})
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// ChangesData lists the changes of a run in write order. Wide output adds the
// column that was written and whether the write reached the store.
func ChangesData(c *differ.Changeset, wide bool) Data {
	headers := []string{"Assignment", "Link Code", "Setting", "Old", "New"}
	if wide {
		headers = append(headers, "Target", "Type", "Applied")
	}

	data := Data{Headers: headers}
	if c == nil {
		return data
	}
	for _, ch := range c.Changes {
		row := []string{
			strconv.FormatInt(ch.AssignmentID, 10),
			ch.LinkCode,
			ch.Label,
			ch.OldValue,
			ch.NewValue,
		}
		if wide {
			row = append(row, ch.Target, string(ch.Type), strconv.FormatBool(ch.Applied))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// WriteResult renders a run. Tables show the summary followed by the changes;
// JSON and YAML encode the whole result.
func WriteResult(w io.Writer, format Format, r *pkgsync.Result) error {
	switch format {
	case FormatJSON, FormatYAML:
		return NewFormatter(format).Format(w, r)
	}

	formatter := NewFormatter(format)
	if err := formatter.Format(w, ResultData(r)); err != nil {
		return err
	}
	if r.Changes == nil || r.Changes.IsEmpty() {
		_, err := fmt.Fprintln(w, r.Summary())
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := formatter.Format(w, ChangesData(r.Changes, format == FormatWide)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, r.Summary())
	return err
}
