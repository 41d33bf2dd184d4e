package config

import (
	"testing"
	"time"

	"go.yaml.in/yaml/v4"
)

func TestDurationUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", `d: 30s`, 30 * time.Second, false},
		{"compound", `d: 1m30s`, 90 * time.Second, false},
		{"quoted", `d: "4s"`, 4 * time.Second, false},
		{"no unit", `d: "10"`, 0, true},
		{"negative", `d: -5s`, 0, true},
		{"not a scalar", `d: [1, 2]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				D Duration `yaml:"d"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && v.D.Duration() != tt.want {
				t.Errorf("got %v, want %v", v.D.Duration(), tt.want)
			}
		})
	}
}
