package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// QiitaConfig controls the Qiita API fetcher.
type QiitaConfig struct {
	Enabled  bool   `yaml:"enabled"`
	DaysBack int    `yaml:"days_back"`
	PerPage  int    `yaml:"per_page"`
	MinLikes int    `yaml:"min_likes"`
	Query    string `yaml:"query"`
	BaseURL  string `yaml:"base_url"`
}

// ZennConfig controls the Zenn feed fetcher.
type ZennConfig struct {
	Enabled     bool     `yaml:"enabled"`
	DaysBack    int      `yaml:"days_back"`
	MaxArticles int      `yaml:"max_articles"`
	RSSURL      string   `yaml:"rss_url"`
	Topics      []string `yaml:"topics"`
}

// SummarizerConfig holds the model parameters for AI summarization.
type SummarizerConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Qiita      QiitaConfig      `yaml:"qiita"`
	Zenn       ZennConfig       `yaml:"zenn"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Output     OutputConfig     `yaml:"output"`
	Database   DatabaseConfig   `yaml:"database"`

	RedisAddr    string `yaml:"-"`
	APIPort      string `yaml:"-"`
	CronSpec     string `yaml:"-"`
	TaxonomyPath string `yaml:"-"`

	// Secrets, env only. QiitaToken is fatal to omit when qiita is
	// enabled; an empty CohereAPIKey just disables the AI paths.
	QiitaToken   string `yaml:"-"`
	CohereAPIKey string `yaml:"-"`
}

// Default returns a Config with the values the yaml document may override.
func Default() *Config {
	return &Config{
		Qiita: QiitaConfig{
			Enabled:  true,
			DaysBack: 1,
			PerPage:  20,
			MinLikes: 10,
			BaseURL:  "https://qiita.com/api/v2",
		},
		Zenn: ZennConfig{
			Enabled:     true,
			DaysBack:    1,
			MaxArticles: 50,
			RSSURL:      "https://zenn.dev/feed",
		},
		Summarizer: SummarizerConfig{
			Model:       "command-r-08-2024",
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Output:   OutputConfig{BaseDir: "articles"},
		Database: DatabaseConfig{Path: "data/articles.db"},
	}
}

// Load reads config.yaml (CONFIG_PATH overrides the location), merges it
// over the defaults and pulls addresses and secrets from the environment.
func Load() (*Config, error) {
	// Best effort; secrets may as well come from the real environment.
	_ = godotenv.Load()

	path := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.APIPort = getEnv("APP_PORT", "9000")
	cfg.CronSpec = getEnv("CRON_SPEC", "0 * * * *")
	cfg.TaxonomyPath = getEnv("CATEGORIES_PATH", "config/categories.yaml")
	cfg.QiitaToken = os.Getenv("QIITA_ACCESS_TOKEN")
	cfg.CohereAPIKey = os.Getenv("COHERE_API_KEY")

	log.Printf("config loaded: qiita=%v zenn=%v port=%s cron=%s",
		cfg.Qiita.Enabled, cfg.Zenn.Enabled, cfg.APIPort, cfg.CronSpec)
	return cfg, nil
}

// LoadFile parses a run configuration document over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No document is fine, defaults carry the run.
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Qiita.PerPage > 100 {
		cfg.Qiita.PerPage = 100
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
