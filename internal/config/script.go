package config

import (
	"fmt"
	"os"

	"github.com/aretw0/debrief/pkg/domain"
	"gopkg.in/yaml.v3"
)

// LoadScript reads a YAML script. Fields missing from the file keep the built-in values,
// and an empty path returns the built-in script.
func LoadScript(path string) (domain.Script, error) {
	script := domain.DefaultScript()
	if path == "" {
		return script, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Script{}, fmt.Errorf("read script: %w", err)
	}
	if err := yaml.Unmarshal(data, &script); err != nil {
		return domain.Script{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidScript, path, err)
	}
	if err := script.Validate(); err != nil {
		return domain.Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}
