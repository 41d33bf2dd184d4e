// Package config holds YAML value types shared by the binaries' configs.
package config

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v4"
)

// Duration is a time.Duration written in YAML as a Go duration string, e.g. "30s".
type Duration time.Duration

var _ yaml.Unmarshaler = (*Duration)(nil)

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("couldn't parse duration %q at line %d: %w", s, value.Line, err)
	}
	if duration < 0 {
		return fmt.Errorf("duration %q at line %d is negative", s, value.Line)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
