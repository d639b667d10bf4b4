package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultBaseURL = "https://gitlab.com"

type Config struct {
	GitLab    GitLabConfig    `mapstructure:"gitlab"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Enhance   EnhanceConfig   `mapstructure:"enhance"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Redaction RedactionConfig `mapstructure:"redaction"`
	TUI       TUIConfig       `mapstructure:"tui"`
	Log       LogConfig       `mapstructure:"log"`
}

type GitLabConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

type QueueConfig struct {
	DefaultLimit int    `mapstructure:"default_limit"`
	DefaultSort  string `mapstructure:"default_sort"`
	DefaultMode  string `mapstructure:"default_mode"`
}

type EnhanceConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type WatchConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	MaxIntervals int           `mapstructure:"max_intervals"`
}

type BrowserConfig struct {
	Command string `mapstructure:"command"`
}

type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TUIConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RepoConfig struct {
	Diff DiffConfig `mapstructure:"diff"`
}

type DiffConfig struct {
	// Exclude holds extra path patterns skipped by the diff summary.
	Exclude []string `mapstructure:"exclude"`
}

func Defaults() Config {
	return Config{
		GitLab: GitLabConfig{BaseURL: DefaultBaseURL},
		Queue: QueueConfig{
			DefaultLimit: 50,
			DefaultSort:  "oldest",
			DefaultMode:  "review",
		},
		Enhance:   EnhanceConfig{Concurrency: 4},
		Watch:     WatchConfig{Interval: 30 * time.Second, MaxIntervals: -1},
		Redaction: RedactionConfig{Enabled: true},
		TUI:       TUIConfig{Enabled: true},
		Log:       LogConfig{Level: "warn"},
	}
}

func DefaultRepoConfig() RepoConfig {
	return RepoConfig{Diff: DiffConfig{Exclude: []string{}}}
}

func Load(configPath string) (Config, RepoConfig, error) {
	return load(configPath, filepath.Join(".", "mrq.yaml"))
}

func load(configPath, repoPath string) (Config, RepoConfig, error) {
	userCfg := Defaults()
	repoCfg := DefaultRepoConfig()

	if err := loadFile(userPath(configPath), "user", &userCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}
	if err := loadFile(repoPath, "repo", &repoCfg); err != nil {
		return Config{}, RepoConfig{}, err
	}

	defaults := Defaults()
	if userCfg.GitLab.BaseURL == "" {
		userCfg.GitLab.BaseURL = defaults.GitLab.BaseURL
	}
	if userCfg.GitLab.Token == "" {
		userCfg.GitLab.Token = tokenFromEnv()
	}
	if userCfg.Queue.DefaultLimit == 0 {
		userCfg.Queue.DefaultLimit = defaults.Queue.DefaultLimit
	}
	if userCfg.Queue.DefaultSort == "" {
		userCfg.Queue.DefaultSort = defaults.Queue.DefaultSort
	}
	if userCfg.Queue.DefaultMode == "" {
		userCfg.Queue.DefaultMode = defaults.Queue.DefaultMode
	}
	if userCfg.Enhance.Concurrency <= 0 {
		userCfg.Enhance.Concurrency = defaults.Enhance.Concurrency
	}
	if userCfg.Watch.Interval <= 0 {
		userCfg.Watch.Interval = defaults.Watch.Interval
	}
	if userCfg.Log.Level == "" {
		userCfg.Log.Level = defaults.Log.Level
	}

	return userCfg, repoCfg, nil
}

func userPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(os.Getenv("HOME"), ".mrq", "config.yaml")
}

func tokenFromEnv() string {
	for _, key := range []string{"MRQ_GITLAB_TOKEN", "GITLAB_TOKEN"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func loadFile(path, kind string, out any) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s config: %w", kind, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to load %s config: %w", kind, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to parse %s config: %w", kind, err)
	}
	return nil
}

// MaskToken keeps the token prefix and the last four characters.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	prefix := ""
	if i := strings.Index(token, "-"); i > 0 && i < len(token)-4 {
		prefix = token[:i+1]
	}
	return prefix + strings.Repeat("*", 8) + token[len(token)-4:]
}
