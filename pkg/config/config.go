package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	AppName    = "planboard"
	configFile = "config.yaml"

	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "PLANBOARD_CONFIG_DIR"
)

// Config is the persisted user configuration.
type Config struct {
	Sheet  SheetConfig  `yaml:"sheet"`
	Drive  DriveConfig  `yaml:"drive"`
	Writer WriterConfig `yaml:"writer"`
}

// SheetConfig locates the planning table.
type SheetConfig struct {
	Name        string `yaml:"name"`
	HeaderRow   int    `yaml:"header_row"`
	DefaultFile string `yaml:"default_file"`
}

// DriveConfig names the workbook on Google Drive and the export folder.
type DriveConfig struct {
	FileName string `yaml:"file_name"`
	FolderID string `yaml:"folder_id"`
}

// WriterConfig configures batch text generation.
type WriterConfig struct {
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"api_key,omitempty"`
	Temperature  float32 `yaml:"temperature"`
	WordsPerPage int     `yaml:"words_per_page"`
	PagesPerLot  int     `yaml:"pages_per_lot"`
	OutputDir    string  `yaml:"output_dir"`
	Language     string  `yaml:"language"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sheet: SheetConfig{
			Name:        "Planning_Projets",
			HeaderRow:   3,
			DefaultFile: "Dashboard_MultiProjets_v56.xlsx",
		},
		Drive: DriveConfig{
			FileName: "Dashboard_MultiProjets_v56.xlsx",
		},
		Writer: WriterConfig{
			Model:        "gemini-2.5-flash",
			Temperature:  0.3,
			WordsPerPage: 700,
			PagesPerLot:  5,
			OutputDir:    "outputs_light",
			Language:     "French",
		},
	}
}

// Dir returns the configuration directory, ~/.config/planboard unless
// PLANBOARD_CONFIG_DIR is set.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// GetConfigPath returns the path of the configuration file.
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration file, falling back to defaults when it does
// not exist. Missing keys keep their default values.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Sheet.HeaderRow < 1 {
		cfg.Sheet.HeaderRow = Default().Sheet.HeaderRow
	}
	return cfg, nil
}

// Save writes cfg to the configuration file.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

// SaveFile writes cfg to path, creating the directory if needed.
func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// APIKey returns the writer API key, preferring the environment.
func (c *Config) APIKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return c.Writer.APIKey
}

// Set assigns a dotted key such as "sheet.header_row" from its text form.
func (c *Config) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	}

	switch strings.ToLower(key) {
	case "sheet.name":
		c.Sheet.Name = value
	case "sheet.header_row":
		n, err := atoi()
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("%s must be at least 1", key)
		}
		c.Sheet.HeaderRow = n
	case "sheet.default_file":
		c.Sheet.DefaultFile = value
	case "drive.file_name":
		c.Drive.FileName = value
	case "drive.folder_id":
		c.Drive.FolderID = value
	case "writer.model":
		c.Writer.Model = value
	case "writer.api_key":
		c.Writer.APIKey = value
	case "writer.temperature":
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.Writer.Temperature = float32(f)
	case "writer.words_per_page":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.Writer.WordsPerPage = n
	case "writer.pages_per_lot":
		n, err := atoi()
		if err != nil {
			return err
		}
		c.Writer.PagesPerLot = n
	case "writer.output_dir":
		c.Writer.OutputDir = value
	case "writer.language":
		c.Writer.Language = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
