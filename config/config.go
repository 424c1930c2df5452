package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/doctest"
	"github.com/jonwraymond/docexec/document"
)

// DefaultFile is the project file name looked up when none is given.
const DefaultFile = "docexec.yaml"

// Extension names accepted in the extensions list.
const (
	ExtensionIgnore  = "ignore"
	ExtensionDoctest = "doctest"
	ExtensionCode    = "code"
	ExtensionCapture = "capture"
)

// DefaultExtensions is the pipeline order used when none is configured.
var DefaultExtensions = []string{ExtensionIgnore, ExtensionDoctest, ExtensionCode, ExtensionCapture}

// File is a validated project file.
type File struct {
	// Path is the absolute path the file was loaded from, empty for defaults.
	Path string

	Languages    []string
	TestPrefix   string
	KeepGoing    bool
	Timeout      time.Duration
	MaxToolCalls int
	MaxSteps     uint64
	StartPattern *regexp.Regexp
	Extensions   []string
	DoctestFlags doctest.Flags
}

// ValidationError aggregates project file validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Is matches code.ErrConfiguration.
func (e *ValidationError) Is(target error) bool {
	return target == code.ErrConfiguration
}

type rawFile struct {
	Languages    []string    `yaml:"languages"`
	TestPrefix   string      `yaml:"test_prefix"`
	KeepGoing    bool        `yaml:"keep_going"`
	Timeout      string      `yaml:"timeout"`
	MaxToolCalls int         `yaml:"max_tool_calls"`
	MaxSteps     uint64      `yaml:"max_steps"`
	StartPattern string      `yaml:"start_pattern"`
	Extensions   []string    `yaml:"extensions"`
	Doctest      *rawDoctest `yaml:"doctest"`
}

type rawDoctest struct {
	Flags []string `yaml:"flags"`
}

// Default returns the configuration used without a project file.
func Default() *File {
	return &File{
		Languages:  append([]string(nil), document.DefaultLanguages...),
		TestPrefix: code.DefaultTestPrefix,
		Extensions: append([]string(nil), DefaultExtensions...),
	}
}

// Load parses and validates the project file at path.
func Load(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	f.Path = absPath
	return f, nil
}

// LoadOptional loads path, or DefaultFile in the working directory when
// path is empty. A missing default file yields Default.
func LoadOptional(path string) (*File, error) {
	if path != "" {
		return Load(path)
	}
	f, err := Load(DefaultFile)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return f, err
}

// Parse decodes and validates a project file. An empty document yields
// Default.
func Parse(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw rawFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	return raw.toFile()
}

func (raw *rawFile) toFile() (*File, error) {
	f := Default()
	var errs ValidationError

	if len(raw.Languages) > 0 {
		f.Languages = f.Languages[:0]
		for i, l := range raw.Languages {
			l = strings.ToLower(strings.TrimSpace(l))
			if l == "" {
				errs.Issues = append(errs.Issues, fmt.Sprintf("languages[%d] must be a non-empty string", i))
				continue
			}
			f.Languages = append(f.Languages, l)
		}
	}
	if raw.TestPrefix != "" {
		f.TestPrefix = raw.TestPrefix
	}
	f.KeepGoing = raw.KeepGoing

	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		switch {
		case err != nil:
			errs.Issues = append(errs.Issues, fmt.Sprintf("timeout %q is not a duration", raw.Timeout))
		case d < 0:
			errs.Issues = append(errs.Issues, "timeout must not be negative")
		default:
			f.Timeout = d
		}
	}
	if raw.MaxToolCalls < 0 {
		errs.Issues = append(errs.Issues, "max_tool_calls must not be negative")
	}
	f.MaxToolCalls = raw.MaxToolCalls
	f.MaxSteps = raw.MaxSteps

	if raw.StartPattern != "" {
		re, err := regexp.Compile(raw.StartPattern)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("start_pattern: %v", err))
		} else if re.SubexpIndex("indent") < 0 || re.SubexpIndex("lang") < 0 {
			errs.Issues = append(errs.Issues, "start_pattern needs named groups indent and lang")
		} else {
			f.StartPattern = re
		}
	}

	if len(raw.Extensions) > 0 {
		f.Extensions = f.Extensions[:0]
		seen := make(map[string]bool)
		for _, name := range raw.Extensions {
			switch name {
			case ExtensionIgnore, ExtensionDoctest, ExtensionCode, ExtensionCapture:
			default:
				errs.Issues = append(errs.Issues, fmt.Sprintf("unknown extension %q", name))
				continue
			}
			if seen[name] {
				errs.Issues = append(errs.Issues, fmt.Sprintf("extension %q listed twice", name))
				continue
			}
			seen[name] = true
			f.Extensions = append(f.Extensions, name)
		}
	}

	if raw.Doctest != nil {
		for _, name := range raw.Doctest.Flags {
			flag, err := doctest.ParseFlag(name)
			if err != nil {
				errs.Issues = append(errs.Issues, fmt.Sprintf("doctest.flags: %v", err))
				continue
			}
			f.DoctestFlags |= flag
		}
	}

	if len(errs.Issues) > 0 {
		return nil, &errs
	}
	return f, nil
}

// Has reports whether the named extension is enabled.
func (f *File) Has(extension string) bool {
	for _, e := range f.Extensions {
		if e == extension {
			return true
		}
	}
	return false
}

// ParserOptions returns the code-block recognition options of f.
func (f *File) ParserOptions() document.ParserOptions {
	return document.ParserOptions{
		Languages:    append([]string(nil), f.Languages...),
		StartPattern: f.StartPattern,
	}
}
