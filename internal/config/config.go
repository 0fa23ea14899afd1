// Package config handles settings loading and validation for camsort.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound      ConfigErrorType = "FILE_NOT_FOUND"
	InvalidFormat     ConfigErrorType = "INVALID_FORMAT"
	UnsupportedFormat ConfigErrorType = "UNSUPPORTED_FORMAT"
	InvalidValue      ConfigErrorType = "INVALID_VALUE"
	ValidationError   ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidFormat:
		return fmt.Sprintf("invalid configuration file %s: %s", e.Path, e.Message)
	case UnsupportedFormat:
		return fmt.Sprintf("unsupported configuration file extension: %s", e.Path)
	case InvalidValue:
		return fmt.Sprintf("invalid value for %s: %s", e.Path, e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Policy values.
const (
	FailurePolicyAbort       = "abort"
	FailurePolicyContinue    = "continue"
	CollisionPolicyOverwrite = "overwrite"
	CollisionPolicyRename    = "rename"
	SymlinkPolicyFollow      = "follow"
	SymlinkPolicySkip        = "skip"
	SymlinkPolicyError       = "error"
)

// DefaultResultsFile is the results file name used when none is configured.
const DefaultResultsFile = "classify_camera_files_analyze_results.csv"

// EnvPrefix prefixes the environment variables that override settings.
const EnvPrefix = "CAMSORT_"

// Settings holds every option camsort recognizes. File keys are snake_case in
// all formats.
type Settings struct {
	SourceFolder         string   `json:"source_folder" toml:"source_folder" yaml:"source_folder"`
	TargetFolder         string   `json:"target_folder" toml:"target_folder" yaml:"target_folder"`
	ResultsFilePath      string   `json:"results_file_path" toml:"results_file_path" yaml:"results_file_path"`
	IsReplaceTarget      bool     `json:"is_replace_target" toml:"is_replace_target" yaml:"is_replace_target"`
	MinFolderFilesCount  int      `json:"min_folder_files_count" toml:"min_folder_files_count" yaml:"min_folder_files_count"`
	MaxMinutesBetween    int      `json:"max_minutes_between_files_in_folder" toml:"max_minutes_between_files_in_folder" yaml:"max_minutes_between_files_in_folder"`
	Verbose              bool     `json:"verbose" toml:"verbose" yaml:"verbose"`
	JournalDir           string   `json:"journal_dir" toml:"journal_dir" yaml:"journal_dir"`
	LogDir               string   `json:"log_dir" toml:"log_dir" yaml:"log_dir"`
	LogLevel             string   `json:"log_level" toml:"log_level" yaml:"log_level"`
	FailurePolicy        string   `json:"failure_policy" toml:"failure_policy" yaml:"failure_policy"`
	CollisionPolicy      string   `json:"collision_policy" toml:"collision_policy" yaml:"collision_policy"`
	SymlinkPolicy        string   `json:"symlink_policy" toml:"symlink_policy" yaml:"symlink_policy"`
	WatchDebounceSeconds int      `json:"watch_debounce_seconds" toml:"watch_debounce_seconds" yaml:"watch_debounce_seconds"`
	IgnorePatterns       []string `json:"ignore_patterns" toml:"ignore_patterns" yaml:"ignore_patterns"`
}

// Default returns the settings used when nothing is configured. The source
// folder is the current directory.
func Default() Settings {
	source, err := os.Getwd()
	if err != nil {
		source = "."
	}
	return Settings{
		SourceFolder:         source,
		TargetFolder:         "classified_files",
		ResultsFilePath:      DefaultResultsFile,
		MinFolderFilesCount:  3,
		MaxMinutesBetween:    60,
		JournalDir:           filepath.Join(".camsort", "journal"),
		LogLevel:             "info",
		FailurePolicy:        FailurePolicyAbort,
		CollisionPolicy:      CollisionPolicyOverwrite,
		SymlinkPolicy:        SymlinkPolicySkip,
		WatchDebounceSeconds: 5,
		IgnorePatterns:       []string{".*", "*.tmp", "*.part", "*~"},
	}
}

// Load reads settings from filePath on top of Default. The decoder is chosen
// by extension: .json, .toml, .yaml or .yml. Keys missing from the file keep
// their defaults.
func Load(filePath string) (*Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath, Err: err}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: filePath, Message: err.Error(), Err: err}
	}

	settings := Default()
	if err := decode(filePath, data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// LoadOrDefault loads filePath when it is set, or returns Default otherwise.
func LoadOrDefault(filePath string) (*Settings, error) {
	if filePath == "" {
		settings := Default()
		return &settings, nil
	}
	return Load(filePath)
}

func decode(filePath string, data []byte, settings *Settings) error {
	var err error
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		err = json.Unmarshal(data, settings)
	case ".toml":
		_, err = toml.Decode(string(data), settings)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, settings)
	default:
		return &ConfigError{Type: UnsupportedFormat, Path: filePath}
	}
	if err != nil {
		return &ConfigError{Type: InvalidFormat, Path: filePath, Message: err.Error(), Err: err}
	}
	return nil
}

// Save writes settings to filePath in the format its extension names.
func Save(settings *Settings, filePath string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		data, err = json.MarshalIndent(settings, "", "  ")
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(settings)
		data = buf.Bytes()
	case ".yaml", ".yml":
		data, err = yaml.Marshal(settings)
	default:
		return &ConfigError{Type: UnsupportedFormat, Path: filePath}
	}
	if err != nil {
		return &ConfigError{Type: InvalidFormat, Path: filePath, Message: err.Error(), Err: err}
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return &ConfigError{
			Type:    ValidationError,
			Path:    filePath,
			Message: fmt.Sprintf("failed to write configuration file: %s", err.Error()),
			Err:     err,
		}
	}
	return nil
}

// ApplyEnv overrides settings from CAMSORT_<KEY> variables, where KEY is the
// upper-cased file key (e.g., CAMSORT_TARGET_FOLDER). ignore_patterns is a
// comma-separated list.
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	for _, f := range s.fields() {
		name := EnvPrefix + strings.ToUpper(f.key)
		value, ok := lookup(name)
		if !ok {
			continue
		}
		if err := f.set(value); err != nil {
			return &ConfigError{Type: InvalidValue, Path: name, Message: err.Error(), Err: err}
		}
	}
	return nil
}

// KeyValue is one entry of a settings snapshot.
type KeyValue struct {
	Key   string
	Value string
}

// Snapshot returns the settings as ordered key/value pairs.
func (s *Settings) Snapshot() []KeyValue {
	fields := s.fields()
	kvs := make([]KeyValue, len(fields))
	for i, f := range fields {
		kvs[i] = KeyValue{Key: f.key, Value: f.get()}
	}
	return kvs
}

// String renders the snapshot like "{source_folder: '/photos', verbose: false, ...}".
func (s *Settings) String() string {
	parts := make([]string, 0)
	for _, kv := range s.Snapshot() {
		parts = append(parts, kv.Key+": "+kv.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type field struct {
	key string
	get func() string
	set func(string) error
}

func (s *Settings) fields() []field {
	return []field{
		stringField("source_folder", &s.SourceFolder),
		stringField("target_folder", &s.TargetFolder),
		stringField("results_file_path", &s.ResultsFilePath),
		boolField("is_replace_target", &s.IsReplaceTarget),
		intField("min_folder_files_count", &s.MinFolderFilesCount),
		intField("max_minutes_between_files_in_folder", &s.MaxMinutesBetween),
		boolField("verbose", &s.Verbose),
		stringField("journal_dir", &s.JournalDir),
		stringField("log_dir", &s.LogDir),
		stringField("log_level", &s.LogLevel),
		stringField("failure_policy", &s.FailurePolicy),
		stringField("collision_policy", &s.CollisionPolicy),
		stringField("symlink_policy", &s.SymlinkPolicy),
		intField("watch_debounce_seconds", &s.WatchDebounceSeconds),
		listField("ignore_patterns", &s.IgnorePatterns),
	}
}

func stringField(key string, p *string) field {
	return field{
		key: key,
		get: func() string { return "'" + *p + "'" },
		set: func(v string) error { *p = v; return nil },
	}
}

func boolField(key string, p *bool) field {
	return field{
		key: key,
		get: func() string { return strconv.FormatBool(*p) },
		set: func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*p = b
			return nil
		},
	}
}

func intField(key string, p *int) field {
	return field{
		key: key,
		get: func() string { return strconv.Itoa(*p) },
		set: func(v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p = n
			return nil
		},
	}
}

func listField(key string, p *[]string) field {
	return field{
		key: key,
		get: func() string { return "[" + strings.Join(*p, ", ") + "]" },
		set: func(v string) error {
			var items []string
			for _, item := range strings.Split(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			*p = items
			return nil
		},
	}
}
