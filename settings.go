package bitpress

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/windtexter/bitpress/lz77"
)

// Settings is the compression section of a deployment's YAML configuration.
//
//	compression:
//	  method: lz77
//	  lz77_window_size: 100
type Settings struct {
	Compression struct {
		Method         string `yaml:"method"`
		LZ77WindowSize int    `yaml:"lz77_window_size"`
	} `yaml:"compression"`
}

// DefaultSettings returns the settings used when no configuration file is
// present: the utf8 passthrough and the default lz77 window.
func DefaultSettings() Settings {
	var s Settings
	s.Compression.Method = UTF8.String()
	s.Compression.LZ77WindowSize = lz77.DefaultWindowSize
	return s
}

// LoadSettings reads settings from a YAML file. Fields left out of the file
// keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("bitpress: parsing %s: %w", path, err)
	}
	if s.Compression.Method == "" {
		s.Compression.Method = UTF8.String()
	}
	return s, nil
}

// Compressor builds the Compressor the settings describe.
func (s Settings) Compressor() (*Compressor, error) {
	method, err := ParseMethod(s.Compression.Method)
	if err != nil {
		return nil, err
	}
	return NewWindow(method, s.Compression.LZ77WindowSize)
}
