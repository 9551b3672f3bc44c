package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config 为应用全量配置，来源为 yaml 配置文件与环境变量。
// 凭证类字段只从环境变量读取，不落配置文件。
type Config struct {
	Database DatabaseConfig           `mapstructure:"database"`
	Server   ServerConfig             `mapstructure:"server"`
	AI       AIConfig                 `mapstructure:"ai"`
	Scrapers map[string]ScraperConfig `mapstructure:"scrapers"`
	Schedule ScheduleConfig           `mapstructure:"schedule"`
	Notify   NotifyConfig             `mapstructure:"notify"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AIConfig 控制职位分析。Provider 留空时按模型名推断。
type AIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIBase  string `mapstructure:"api-base"`
	APIKey   string `mapstructure:"api-key"`
	MaxJobs  int    `mapstructure:"max-jobs"`
}

// ScraperConfig 控制单个平台开关。未出现在配置中的平台默认启用。
type ScraperConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ScheduleConfig 控制定时检索。
type ScheduleConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cron     string         `mapstructure:"cron"`
	Searches []SearchConfig `mapstructure:"searches"`
}

// SearchConfig 为一条定时检索项。
type SearchConfig struct {
	Keywords string `mapstructure:"keywords"`
	Location string `mapstructure:"location"`
	Analyze  bool   `mapstructure:"analyze"`
}

// NotifyConfig 控制新职位通知。
type NotifyConfig struct {
	Email EmailConfig `mapstructure:"email"`
}

type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	Subject  string   `mapstructure:"subject"`
}

// ResolvedProvider 返回生效的 LLM 提供方。
// 显式配置优先，否则按模型名推断：名称含 gemini 即走 Gemini，其余走 OpenAI 兼容接口。
func (c AIConfig) ResolvedProvider() string {
	if p := strings.TrimSpace(c.Provider); p != "" {
		return strings.ToLower(p)
	}
	if strings.Contains(strings.ToLower(c.Model), "gemini") {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// Load 读取配置。加载顺序：.env -> 配置文件 -> 环境变量覆盖。
// cfgFile 为空时在当前目录查找 jobscout.yaml，文件缺失不视为错误。
func Load(cfgFile string) (*Config, error) {
	// .env 缺失是常态，忽略错误。
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("jobscout")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/jobscout.db")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.max-jobs", 50)
	v.SetDefault("schedule.cron", "0 */6 * * *")
	v.SetDefault("notify.email.port", 587)
}

func bindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"database.path":         "DATABASE_PATH",
		"server.host":           "SERVER_HOST",
		"server.port":           "SERVER_PORT",
		"ai.model":              "AI_MODEL",
		"ai.provider":           "AI_PROVIDER",
		"ai.api-base":           "OPENAI_API_BASE",
		"notify.email.host":     "SMTP_HOST",
		"notify.email.port":     "SMTP_PORT",
		"notify.email.username": "SMTP_USERNAME",
		"notify.email.password": "SMTP_PASSWORD",
		"notify.email.from":     "SMTP_FROM",
	}
	for key, env := range bindings {
		// BindEnv 只在 key/env 为空时报错，这里输入固定。
		_ = v.BindEnv(key, env)
	}
}

// EnabledScrapers 将配置映射为平台开关表。
func (c *Config) EnabledScrapers() map[string]bool {
	if len(c.Scrapers) == 0 {
		return nil
	}
	enabled := make(map[string]bool, len(c.Scrapers))
	for name, sc := range c.Scrapers {
		enabled[strings.ToLower(name)] = sc.Enabled
	}
	return enabled
}
