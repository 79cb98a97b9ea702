package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/oarkflow/json"

	"github.com/oarkflow/storyarc/pipeline"
)

// SummaryFile holds the runs row as a single object.
const SummaryFile = "summary.json"

// JSON writes one array of row objects per table. Undefined values are
// null.
type JSON struct {
	Dir string
}

func (JSON) Format() string { return "json" }

func (j JSON) Write(ctx context.Context, r *pipeline.Report) error {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return err
	}
	for _, t := range tables(r) {
		if err := ctx.Err(); err != nil {
			return err
		}
		objects := t.objects()
		var doc any = objects
		name := t.name + ".json"
		if t.name == TableRuns {
			doc, name = objects[0], SummaryFile
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(j.Dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (t table) objects() []map[string]any {
	out := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		obj := make(map[string]any, len(t.columns))
		for i, c := range t.columns {
			obj[c.name] = row[i]
		}
		out = append(out, obj)
	}
	return out
}
