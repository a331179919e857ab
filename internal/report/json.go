package report

import (
	"encoding/json"
	"io"

	"github.com/user/audit-service/internal/entity"
)

// JSONWriter outputs reports as indented JSON.
type JSONWriter struct {
	output io.Writer
}

func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

func (w *JSONWriter) Write(report *entity.AuditReport) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
