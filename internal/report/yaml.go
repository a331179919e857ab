package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/user/audit-service/internal/entity"
)

// YAMLWriter outputs reports as block-style YAML with the JSON field names.
type YAMLWriter struct {
	output io.Writer
}

func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{output: output}
}

func (w *YAMLWriter) Write(report *entity.AuditReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	// JSON is YAML; decoding into a node keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
