package distribution

import (
	"bytes"
	"encoding/json"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/pipeline"
)

// =============================================================================
// Pipeline Document Codec
// =============================================================================

// pipelineIndent matches the four-space indentation the pipeline documents
// are conventionally written with.
const pipelineIndent = "    "

// ParsePipeline decodes pipeline_conf.json, rejecting unknown fields at
// every level.
func ParsePipeline(data []byte) (*pipeline.Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	cfg := &pipeline.Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.Services == nil {
		cfg.Services = pipeline.NewGraph()
	}
	return cfg, nil
}

// MarshalPipeline serializes a pipeline document with stable indentation and
// a trailing newline.
func MarshalPipeline(cfg *pipeline.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", pipelineIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
