package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Loader Cross-Check
// =============================================================================

// CheckLoadable runs the compose loader over a serialized document. The
// closed schema catches unknown fields; the loader catches the class of
// drift the schema cannot, such as malformed port bindings, bad volume
// specs and dependency cycles. Used as a gate before documents are saved.
func CheckLoadable(kind Kind, data []byte) error {
	var dict map[string]interface{}
	if err := yaml.Unmarshal(data, &dict); err != nil {
		return NewDocumentError(kind, "", "", err)
	}
	if dict == nil {
		return nil
	}

	_, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Filename: kind.Filename(),
				Content:  data,
				Config:   dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("dreamtools-check", false)
		opts.SkipValidation = false
		// Documents are fragments of a merged compose stack: override
		// carries build-only services, dev carries ports-only patches.
		// Interpolation, normalization and extends resolution would all
		// demand context the fragment does not have.
		opts.SkipInterpolation = true
		opts.SkipNormalization = true
		opts.SkipExtends = true
		opts.SkipConsistencyCheck = true
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "dependency cycle") {
			return NewDocumentError(kind, "", "", fmt.Errorf("dependency cycle: %w", err))
		}
		return NewDocumentError(kind, "", "", err)
	}
	return nil
}
