package cmd

import (
	"context"
	"testing"

	"jobscout/internal/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRestrictToPlatform(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	require.NoError(t, restrictToPlatform(cfg, "indeed"))
	require.True(t, cfg.Scrapers["indeed"].Enabled)
	for _, name := range platformNames {
		if name != "indeed" {
			require.False(t, cfg.Scrapers[name].Enabled)
		}
	}

	// Whitespace and case are tolerated.
	cfg = &config.Config{}
	require.NoError(t, restrictToPlatform(cfg, "  Indeed "))
	require.True(t, cfg.Scrapers["indeed"].Enabled)

	// Unknown names fail loudly instead of disabling every platform.
	cfg = &config.Config{}
	err := restrictToPlatform(cfg, "dice")
	require.ErrorContains(t, err, "unknown platform")
	require.ErrorContains(t, err, "dice")
	require.Nil(t, cfg.Scrapers, "config stays untouched on a bad platform name")
}

func TestNewAnalyzerAndAgentWiring(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	ctx := context.Background()
	zlog := zap.NewNop()

	// Disabled or keyless analysis yields a nil analyzer.
	cfg := &config.Config{AI: config.AIConfig{Enabled: false}}
	require.Nil(t, newAnalyzer(ctx, cfg, zlog))

	cfg = &config.Config{AI: config.AIConfig{Enabled: true, Model: "gpt-4o-mini"}}
	require.Nil(t, newAnalyzer(ctx, cfg, zlog))
	require.NotNil(t, buildAgentWith(cfg, nil, nil, zlog))

	// With a key the single analyzer instance feeds the orchestrator too.
	cfg.AI.APIKey = "sk-test"
	an := newAnalyzer(ctx, cfg, zlog)
	require.NotNil(t, an)
	require.NotNil(t, buildAgentWith(cfg, nil, an, zlog))
}
