package config

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// DefaultPerspectives are the physician statements used when neither the
// config file nor the caller supplies any.
var DefaultPerspectives = []string{
	"AI should augment healthcare professionals, not replace them",
	"Technology must enhance the human connection in medicine, not diminish it",
	"Data privacy and ethical considerations must be prioritized in healthcare AI",
	"AI tools should reduce administrative burden to allow more time with patients",
	"Healthcare AI should focus on improving patient outcomes and experience",
	"AI solutions must be accessible to all healthcare providers, not just large institutions",
	"Clinicians should be involved in the development of healthcare AI systems",
}

type Config struct {
	Generation   Generation `yaml:"generation"`
	Fetch        Fetch      `yaml:"fetch"`
	Post         Post       `yaml:"post"`
	Perspectives []string   `yaml:"perspectives"`
	Feeds        []Feed     `yaml:"feeds"`
	Server       Server     `yaml:"server"`
	Logging      Logging    `yaml:"logging"`
}

type Generation struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	APIKeyEnv        string        `yaml:"api_key_env"`
	BaseURL          string        `yaml:"base_url"`
	OllamaURL        string        `yaml:"ollama_url"`
	MaxTokens        int           `yaml:"max_tokens"`
	Temperature      float64       `yaml:"temperature"`
	Timeout          time.Duration `yaml:"timeout"`
	StructuredOutput bool          `yaml:"structured_output"`
}

type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxChars  int           `yaml:"max_chars"`
	Extractor string        `yaml:"extractor"`
	UserAgent string        `yaml:"user_agent"`
}

type Post struct {
	WordCount int    `yaml:"word_count"`
	Persona   string `yaml:"persona"`
	Topic     string `yaml:"topic"`
	Platform  string `yaml:"platform"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for perspost.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "perspost")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/perspost/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the embedded
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the
// built-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		// The embedded file is covered by tests.
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Generation: Generation{
			Provider:    "gemini",
			OllamaURL:   "http://localhost:11434",
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Fetch: Fetch{
			Timeout:   15 * time.Second,
			MaxChars:  2000,
			Extractor: "html",
			UserAgent: "perspost/1.0 (post generator)",
		},
		Post: Post{
			WordCount: 225,
			Persona:   "physician",
			Topic:     "AI in healthcare",
			Platform:  "LinkedIn",
		},
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Generation.applyProviderDefaults()
	if len(cfg.Perspectives) == 0 {
		cfg.Perspectives = append([]string(nil), DefaultPerspectives...)
	}
	if cfg.Post.WordCount <= 0 {
		return nil, fmt.Errorf("parsing config: post.word_count must be positive, got %d", cfg.Post.WordCount)
	}

	return cfg, nil
}

// providerDefaults holds the model and credential variable used for each
// provider when the config leaves them unset.
var providerDefaults = map[string]struct{ model, apiKeyEnv string }{
	"gemini": {model: "gemini-2.0-flash", apiKeyEnv: "GEMINI_API_KEY"},
	"openai": {model: "gpt-4o-mini", apiKeyEnv: "OPENAI_API_KEY"},
	"ollama": {model: "qwen2.5:7b"},
}

func (g *Generation) applyProviderDefaults() {
	d, ok := providerDefaults[strings.ToLower(g.Provider)]
	if !ok {
		return
	}
	if g.Model == "" {
		g.Model = d.model
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = d.apiKeyEnv
	}
}

// APIKey returns the generation credential from the environment variable
// named by api_key_env. It is empty when the variable is unset.
func (g Generation) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// LoadPerspectives reads newline-separated perspective statements, skipping
// blank lines.
func LoadPerspectives(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening perspectives file: %w", err)
	}
	defer f.Close()

	var perspectives []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			perspectives = append(perspectives, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading perspectives file: %w", err)
	}
	return perspectives, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
