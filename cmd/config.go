package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/ai"
	"github.com/spigell/unifit/internal/ai/gemini"
	"github.com/spigell/unifit/internal/matcher"
	"github.com/spigell/unifit/internal/secrets"
)

// Validation holds the problems found in a config. Errors stop the command,
// warnings are logged.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(v.Errors, "; "))
}

// Validate checks the parts of the config every command relies on.
func (c *Config) Validate() Validation {
	var res Validation

	if c.Data == nil || strings.TrimSpace(c.Data.Institutions) == "" {
		res.addErr("data.institutions must point to the institution CSV")
	}
	if c.Data != nil && strings.TrimSpace(c.Data.FieldsOfStudy) == "" {
		res.addWarn("data.fields-of-study is empty; every institution gets the neutral major score")
	}

	if c.Search == nil {
		res.addErr("search section is required")
	} else {
		if c.Search.Limit < 0 {
			res.addErr("search.limit must be >= 0")
		} else if c.Search.Limit == 0 {
			res.addWarn("search.limit is 0; every filtered institution is returned")
		}
		if c.Search.CacheSize < 0 {
			res.addErr("search.cache-size must be >= 0")
		}
		if err := c.Search.Weights.Validate(); err != nil {
			res.addErr("search.weights: %v", err)
		}
	}

	if c.Server != nil && strings.TrimSpace(c.Server.Addr) == "" {
		res.addWarn("server.addr is empty; serve listens on :http")
	}

	if c.AI != nil && c.AI.Enabled {
		if p := strings.ToLower(strings.TrimSpace(c.AI.Provider)); p != "" && p != "gemini" {
			res.addErr("ai.provider %q is not supported", c.AI.Provider)
		}
		if c.AI.Gemini == nil {
			res.addErr("ai.gemini section is required when ai is enabled")
		} else if c.AI.Gemini.APIKey == "" && c.AI.Gemini.APIKeyFile == "" && os.Getenv(geminiKeyEnv) == "" {
			res.addWarn("ai.gemini.api-key-file is not set; summaries will be skipped")
		}
	}

	return res
}

func (c *Config) engineOptions(l *zap.Logger) []matcher.Option {
	return []matcher.Option{
		matcher.WithWeights(c.Search.Weights),
		matcher.WithLimit(c.Search.Limit),
		matcher.WithCacheSize(c.Search.CacheSize),
		matcher.WithLogger(l),
	}
}

// geminiKeyEnv is the variable the Gemini SDK documents for its key.
const geminiKeyEnv = "GEMINI_API_KEY"

// newAdvisor builds the optional AI advisor. It returns nil without error
// when AI is disabled.
func newAdvisor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Advisor, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAdvisor(generator, cfg.Gemini.MaxLogLength, logger), nil
}
