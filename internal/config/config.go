package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the grasp-planner application configuration
type Config struct {
	Policy  PolicyConfig  `json:"policy"`
	Inpaint InpaintConfig `json:"inpaint"`
	Notify  NotifyConfig  `json:"notify"`
	Vis     VisConfig     `json:"vis"`
}

// PolicyConfig holds the policy collaborator settings. CropWidth and
// CropHeight are the analysis crop geometry and drive the minimum image
// size accepted by the pipeline.
type PolicyConfig struct {
	Backend    string            `json:"backend"`
	Profiles   map[string]string `json:"profiles,omitempty"`
	CropWidth  int               `json:"crop_width"`
	CropHeight int               `json:"crop_height"`
	TimeoutSec int               `json:"timeout_sec"`
}

// ResolveBackend returns the backend URL for the named profile, or the
// default backend when name is empty.
func (p PolicyConfig) ResolveBackend(name string) (string, error) {
	if name == "" {
		return p.Backend, nil
	}
	url, ok := p.Profiles[name]
	if !ok {
		return "", fmt.Errorf("unknown policy profile %q", name)
	}
	return url, nil
}

// InpaintConfig holds preprocessing settings
type InpaintConfig struct {
	RescaleFactor float64 `json:"rescale_factor"`
}

// NotifyConfig holds the pose monitoring channel settings
type NotifyConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// VisConfig mirrors the visualization toggles of the policy deployment.
// The planner accepts them but routes them to the visualization
// collaborator; nothing in this core reads them.
type VisConfig struct {
	ColorImage bool `json:"color_image"`
	DepthImage bool `json:"depth_image"`
	Segmask    bool `json:"segmask"`
	RGBDState  bool `json:"rgbd_state"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			Backend:    "http://localhost:5000",
			CropWidth:  96,
			CropHeight: 96,
			TimeoutSec: 300,
		},
		Inpaint: InpaintConfig{
			RescaleFactor: 0.5,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Addr:    ":8089",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Policy.CropWidth < 1 {
		return fmt.Errorf("policy.crop_width must be positive")
	}

	if c.Policy.CropHeight < 1 {
		return fmt.Errorf("policy.crop_height must be positive")
	}

	if c.Policy.Backend == "" {
		return fmt.Errorf("policy.backend cannot be empty")
	}

	for name, url := range c.Policy.Profiles {
		if url == "" {
			return fmt.Errorf("policy.profiles[%s] cannot be empty", name)
		}
	}

	if c.Policy.TimeoutSec < 0 {
		return fmt.Errorf("policy.timeout_sec cannot be negative")
	}

	if c.Inpaint.RescaleFactor <= 0 || c.Inpaint.RescaleFactor > 1 {
		return fmt.Errorf("inpaint.rescale_factor must be in (0, 1]")
	}

	if c.Notify.Enabled && c.Notify.Addr == "" {
		return fmt.Errorf("notify.addr cannot be empty when notify is enabled")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "grasp-planner", "config.json")
}
