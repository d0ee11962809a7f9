package screen

import (
	"fmt"
	"os"
)

// Load reads a screen envelope from a JSON file. When v is non-nil the file is
// validated against the screen schema first.
func Load(path string, v *Validator) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read screen file: %w", err)
	}

	if v != nil {
		if err := v.Validate(data); err != nil {
			return nil, err
		}
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}
