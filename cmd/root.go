package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/unifit/internal/ai/gemini"
	"github.com/spigell/unifit/internal/matcher"
	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/ranking"
	"github.com/spigell/unifit/internal/scoring"
)

const (
	app       = "unifit"
	envPrefix = "UNIFIT"
)

type Config struct {
	Data    *DataConfig   `mapstructure:"data"`
	Search  *SearchConfig `mapstructure:"search"`
	Profile profile.Input `mapstructure:"profile"`
	Export  *ExportConfig `mapstructure:"export"`
	Server  *ServerConfig `mapstructure:"server"`
	AI      *AIConfig     `mapstructure:"ai"`
}

type DataConfig struct {
	Institutions  string `mapstructure:"institutions"`
	FieldsOfStudy string `mapstructure:"fields-of-study"`
}

type SearchConfig struct {
	Limit     int             `mapstructure:"limit"`
	CacheSize int             `mapstructure:"cache-size"`
	Weights   scoring.Weights `mapstructure:"weights"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
	Watch          bool     `mapstructure:"watch"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

// Sources returns the dataset paths the matcher loads.
func (c *Config) Sources() matcher.Sources {
	return matcher.Sources{
		Institutions:  c.Data.Institutions,
		FieldsOfStudy: c.Data.FieldsOfStudy,
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "unifit matches a student profile against the College Scorecard catalog",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is unifit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("institutions", "", "path to the institution-level CSV")
	rootCmd.PersistentFlags().String("fields-of-study", "", "path to the field-of-study CSV")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("data.institutions", rootCmd.PersistentFlags().Lookup("institutions"))
	viper.BindPFlag("data.fields-of-study", rootCmd.PersistentFlags().Lookup("fields-of-study"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	weights := scoring.DefaultWeights()

	v.SetDefault("data.institutions", "data/Most-Recent-Cohorts-Institution.csv")
	v.SetDefault("data.fields-of-study", "data/FieldOfStudyData.csv")
	v.SetDefault("search.limit", ranking.DefaultLimit)
	v.SetDefault("search.cache-size", matcher.DefaultCacheSize)
	v.SetDefault("search.weights.academic", weights.Academic)
	v.SetDefault("search.weights.selectivity", weights.Selectivity)
	v.SetDefault("search.weights.preference", weights.Preference)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", gemini.DefaultModel)
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 2000)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// A missing default config is fine: flags, env and defaults are enough to
	// run a search. An explicit --config must exist and parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
