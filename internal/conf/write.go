package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/u-stem/koto/internal/errors"
)

// MarshalYAML renders settings as a YAML document.
func MarshalYAML(settings *Settings) ([]byte, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings: %w", err)
	}
	return data, nil
}

// WriteDefaultConfig writes the default settings to path. Existing files are
// left untouched unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config file %s already exists", path).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	data, err := MarshalYAML(Defaults())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.FileError(fmt.Errorf("error creating directories for config file: %w", err), path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.FileError(fmt.Errorf("error writing config file: %w", err), path)
	}
	return nil
}
