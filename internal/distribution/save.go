package distribution

import (
	"os"
	"path/filepath"

	"github.com/deeppavlov/deeppavlov-dreamtools/internal/core/compose"
)

// =============================================================================
// Saving
// =============================================================================

// Save writes the distribution to its directory. The call is all-or-nothing
// with respect to validation: every document is validated, cross-checked
// with the compose loader and serialized before the first byte reaches disk.
// An existing directory is refused unless overwrite is set; the check runs
// at save time, so staged clones only collide when actually written.
func (d *Distribution) Save(overwrite bool) error {
	if _, err := os.Stat(d.Path); err == nil && !overwrite {
		return NewError(d.Name, "save", ErrAlreadyExists)
	}

	files := map[string][]byte{}

	pipelineData, err := MarshalPipeline(d.Pipeline)
	if err != nil {
		return NewError(d.Name, "save "+PipelineFilename, err)
	}
	files[PipelineFilename] = pipelineData

	for _, kind := range compose.Kinds {
		doc, ok := d.Docs[kind]
		if !ok {
			continue
		}
		if err := doc.Validate(); err != nil {
			return NewError(d.Name, "save "+kind.Filename(), err)
		}
		data, err := doc.Marshal()
		if err != nil {
			return NewError(d.Name, "save "+kind.Filename(), err)
		}
		if err := compose.CheckLoadable(kind, data); err != nil {
			return NewError(d.Name, "save "+kind.Filename(), err)
		}
		files[kind.Filename()] = data
	}

	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return NewError(d.Name, "save", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(d.Path, name), data, 0o644); err != nil {
			return NewError(d.Name, "save "+name, err)
		}
	}
	return nil
}
