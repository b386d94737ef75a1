package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the optional TOML configuration file.
// Zero values mean "not set" and leave the environment value in place.
//
//	provider = "anthropic"
//	model = "claude-sonnet-4-20250514"
//	max_tokens = 2048
//	temperature = 0.2
//
//	[cloud]
//	base_url = "https://cloud.griptape.ai"
//	search_mode = "query"
//	result_count = 5
//
//	[memory]
//	backend = "local"
//	db_path = ".kbagent/kbagent.db"
type File struct {
	Provider    string     `toml:"provider"`
	Model       string     `toml:"model"`
	MaxTokens   uint32     `toml:"max_tokens"`
	Temperature *float64   `toml:"temperature"`
	Cloud       FileCloud  `toml:"cloud"`
	Memory      FileMemory `toml:"memory"`
}

// FileCloud is the [cloud] table.
type FileCloud struct {
	BaseURL     string `toml:"base_url"`
	SearchMode  string `toml:"search_mode"`
	ResultCount int    `toml:"result_count"`
}

// FileMemory is the [memory] table.
type FileMemory struct {
	Backend string `toml:"backend"`
	DBPath  string `toml:"db_path"`
}

// LoadFile decodes a TOML configuration file.
// An empty path returns an empty File. Unknown keys are an error.
func LoadFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}

	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}

	if f.Cloud.SearchMode != "" {
		if err := ValidateSearchMode(f.Cloud.SearchMode); err != nil {
			return File{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if f.Memory.Backend != "" {
		if err := ValidateMemoryBackend(f.Memory.Backend); err != nil {
			return File{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	return f, nil
}

// Apply overlays the values set in f. The provider is not changed here:
// callers pick the provider first and pass it to New. The file's model only
// applies when the file names no provider or the same one.
func (s Settings) Apply(f File) Settings {
	if f.Model != "" && (f.Provider == "" || NormalizeProvider(f.Provider) == s.LLM.Provider) {
		s.LLM.Model = f.Model
	}
	if f.MaxTokens > 0 {
		s.LLM.MaxTokens = f.MaxTokens
	}
	if f.Temperature != nil {
		s.LLM.Temperature = *f.Temperature
	}
	if f.Cloud.BaseURL != "" {
		s.Cloud.BaseURL = strings.TrimRight(f.Cloud.BaseURL, "/")
	}
	if f.Cloud.SearchMode != "" {
		s.Cloud.SearchMode = f.Cloud.SearchMode
	}
	if f.Cloud.ResultCount > 0 {
		s.Cloud.ResultCount = f.Cloud.ResultCount
	}
	if f.Memory.Backend != "" {
		s.Memory.Backend = f.Memory.Backend
	}
	if f.Memory.DBPath != "" {
		s.Memory.DBPath = f.Memory.DBPath
	}
	return s
}
