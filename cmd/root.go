package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"jobscout/internal/agent"
	"jobscout/internal/analyzer"
	"jobscout/internal/config"
	"jobscout/internal/logger"
	"jobscout/internal/scraper"
	"jobscout/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "jobscout"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobscout aggregates job postings from multiple job boards into one searchable database",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setup 加载配置并构造日志器，失败直接退出进程。
func setup() (*config.Config, *zap.Logger) {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		zlog.Fatal("loading config", zap.Error(err))
	}
	return cfg, zlog
}

func openStore(cfg *config.Config, zlog *zap.Logger) *storage.Store {
	store, err := storage.NewStore(cfg.Database.Path, zlog)
	if err != nil {
		zlog.Fatal("opening database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	return store
}

var platformNames = []string{"adzuna", "serpapi", "indeed", "linkedin", "glassdoor", "monster"}

// restrictToPlatform 覆盖平台开关，只保留指定平台；平台名未知时报错而非静默全关。
func restrictToPlatform(cfg *config.Config, source string) error {
	source = strings.ToLower(strings.TrimSpace(source))

	known := false
	scrapers := make(map[string]config.ScraperConfig, len(platformNames))
	for _, name := range platformNames {
		enabled := name == source
		scrapers[name] = config.ScraperConfig{Enabled: enabled}
		known = known || enabled
	}
	if !known {
		return fmt.Errorf("unknown platform %q, valid platforms: %s", source, strings.Join(platformNames, ", "))
	}
	cfg.Scrapers = scrapers
	return nil
}

// buildScrapers 按固定顺序注册全部平台适配器，开关由配置控制。
func buildScrapers(zlog *zap.Logger) []scraper.Scraper {
	client := &http.Client{Timeout: 30 * time.Second}
	return []scraper.Scraper{
		scraper.NewAdzuna(zlog, client),
		scraper.NewSerpAPI(zlog, client),
		scraper.NewIndeed(zlog, client),
		scraper.NewLinkedIn(zlog, client),
		scraper.NewGlassdoor(zlog, client),
		scraper.NewMonster(zlog, client),
	}
}

// newAnalyzer 按配置构造分析器。
// AI 关闭或缺少密钥时返回 nil，检索流程降级为不分析。
func newAnalyzer(ctx context.Context, cfg *config.Config, zlog *zap.Logger) *analyzer.Analyzer {
	if !cfg.AI.Enabled {
		return nil
	}

	switch provider := cfg.AI.ResolvedProvider(); provider {
	case config.ProviderGemini:
		key := cfg.AI.APIKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		if key == "" {
			zlog.Warn("GEMINI_API_KEY not set, job analysis disabled")
			return nil
		}
		client, err := analyzer.NewGeminiClient(ctx, key, cfg.AI.Model)
		if err != nil {
			zlog.Warn("gemini client init failed, job analysis disabled", zap.Error(err))
			return nil
		}
		return analyzer.New(client, zlog)
	default:
		key := cfg.AI.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			zlog.Warn("OPENAI_API_KEY not set, job analysis disabled")
			return nil
		}
		client := analyzer.NewOpenAIClient(analyzer.OpenAIConfig{
			APIBase: cfg.AI.APIBase,
			APIKey:  key,
			Model:   cfg.AI.Model,
		}, nil)
		return analyzer.New(client, zlog)
	}
}

func buildAgent(ctx context.Context, cfg *config.Config, store *storage.Store, zlog *zap.Logger) *agent.Agent {
	return buildAgentWith(cfg, store, newAnalyzer(ctx, cfg, zlog), zlog)
}

// buildAgentWith 用已有的分析器组装编排器，供 serve 与 API 层共用同一实例。
func buildAgentWith(cfg *config.Config, store *storage.Store, an *analyzer.Analyzer, zlog *zap.Logger) *agent.Agent {
	if an != nil {
		return agent.New(buildScrapers(zlog), cfg.EnabledScrapers(), an, store, cfg.AI.MaxJobs, zlog)
	}
	return agent.New(buildScrapers(zlog), cfg.EnabledScrapers(), nil, store, cfg.AI.MaxJobs, zlog)
}
