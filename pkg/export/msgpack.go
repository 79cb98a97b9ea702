package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/oarkflow/storyarc/pipeline"
)

const MsgpackFile = "report.msgpack"

// Msgpack writes the whole report as one document. NaN survives the round
// trip, so undefined values need no special casing.
type Msgpack struct {
	Dir string
}

func (Msgpack) Format() string { return "msgpack" }

func (m Msgpack) Write(_ context.Context, r *pipeline.Report) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return err
	}
	data, err := msgpack.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.Dir, MsgpackFile), data, 0o644)
}

// ReadMsgpack loads a report written by Msgpack.
func ReadMsgpack(path string) (*pipeline.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r pipeline.Report
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
