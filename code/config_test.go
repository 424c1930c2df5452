package code

import (
	"errors"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"engine", Config{Engine: &scriptEngine{}}, ""},
		{"resolver", Config{Resolver: mockResolver{}}, ""},
		{"nothing", Config{}, "Engine or Resolver"},
		{"handlers without index", Config{Engine: &scriptEngine{}, Handlers: HandlerMap{}}, "Index"},
		{"negative limit", Config{Engine: &scriptEngine{}, MaxToolCalls: -1}, "MaxToolCalls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Engine: &scriptEngine{}}
	cfg.applyDefaults()
	if cfg.DefaultLanguage != "python" {
		t.Errorf("DefaultLanguage = %q, want python", cfg.DefaultLanguage)
	}
	if cfg.TestPrefix != DefaultTestPrefix {
		t.Errorf("TestPrefix = %q, want %q", cfg.TestPrefix, DefaultTestPrefix)
	}

	custom := Config{DefaultLanguage: "starlark", TestPrefix: "check_"}
	custom.applyDefaults()
	if custom.DefaultLanguage != "starlark" || custom.TestPrefix != "check_" {
		t.Errorf("defaults overwrote explicit values: %+v", custom)
	}
}
