package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "crna-fit"
)

type Config struct {
	// Profile and Schools are decoded by the catalog package, which knows their field names.
	Profile   any              `mapstructure:"profile"`
	Schools   any              `mapstructure:"schools"`
	Filters   *FiltersConfig   `mapstructure:"filters"`
	Profanity *ProfanityConfig `mapstructure:"profanity"`
	License   *LicenseConfig   `mapstructure:"license"`
	AI        *AIConfig        `mapstructure:"ai"`
	Server    *ServerConfig    `mapstructure:"server"`
}

type FiltersConfig struct {
	States         []string `mapstructure:"states"`
	ExcludeSchools []string `mapstructure:"exclude-schools"`
	ExcludeFile    string   `mapstructure:"exclude-file"`
	MinimumScore   int      `mapstructure:"minimum-score"`
}

// ProfanityConfig.Cache is one of none, memory or redis.
type ProfanityConfig struct {
	Words     []string      `mapstructure:"words"`
	WordsFile string        `mapstructure:"words-file"`
	TTL       time.Duration `mapstructure:"ttl"`
	Cache     string        `mapstructure:"cache"`
	Redis     *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Key  string `mapstructure:"key"`
}

type LicenseConfig struct {
	Mode       string        `mapstructure:"mode"`
	APIURL     string        `mapstructure:"api-url"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max-retries"`
}

type AIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Provider   string        `mapstructure:"provider"`
	MaxSchools int           `mapstructure:"max-schools"`
	Gemini     *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "crna-fit scores how well an applicant matches CRNA programs",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"license.api-key-file":   "CRNA_FIT_LICENSE_API_KEY_FILE",
		"profanity.redis.addr":   "CRNA_FIT_REDIS_ADDR",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is crna-fit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command never needs a config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	// Without an explicit --config a missing default file is fine: commands fall back to
	// flags and built-in defaults.
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Profanity == nil {
		config.Profanity = &ProfanityConfig{}
	}
	if config.License == nil {
		config.License = &LicenseConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
