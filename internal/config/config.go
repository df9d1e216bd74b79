package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/irfandi/market-analyzer-go/internal/services"
)

// Config is the application configuration, loaded once at startup from an
// optional YAML file with environment-variable overrides.
type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	LogFormat   string         `mapstructure:"log_format"`
	Server      ServerConfig   `mapstructure:"server"`
	Analysis    AnalysisConfig `mapstructure:"analysis"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AnalysisConfig holds the tunable analysis parameters. Indicators()
// freezes them into the immutable engine configuration.
type AnalysisConfig struct {
	Benchmark   string  `mapstructure:"benchmark"`
	SMAPeriods  []int   `mapstructure:"sma_periods"`
	EMAPeriods  []int   `mapstructure:"ema_periods"`
	RSIPeriod   int     `mapstructure:"rsi_period"`
	MACDFast    int     `mapstructure:"macd_fast"`
	MACDSlow    int     `mapstructure:"macd_slow"`
	MACDSignal  int     `mapstructure:"macd_signal"`
	BBPeriod    int     `mapstructure:"bb_period"`
	BBStdDev    float64 `mapstructure:"bb_std_dev"`
	StochasticK int     `mapstructure:"stochastic_k"`
	StochasticD int     `mapstructure:"stochastic_d"`
}

// Load reads configuration from ./configs/config.yaml (or the working
// directory) and the environment. Absent values fall back to defaults, so
// a missing config file is not an error.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Analysis.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("analysis.benchmark", "SPY")
	viper.SetDefault("analysis.sma_periods", []int{5, 10, 20, 50, 200})
	viper.SetDefault("analysis.ema_periods", []int{8, 12, 21, 26, 50})
	viper.SetDefault("analysis.rsi_period", 14)
	viper.SetDefault("analysis.macd_fast", 12)
	viper.SetDefault("analysis.macd_slow", 26)
	viper.SetDefault("analysis.macd_signal", 9)
	viper.SetDefault("analysis.bb_period", 20)
	viper.SetDefault("analysis.bb_std_dev", 2.0)
	viper.SetDefault("analysis.stochastic_k", 14)
	viper.SetDefault("analysis.stochastic_d", 3)
}

func (a AnalysisConfig) validate() error {
	for _, p := range append(append([]int{}, a.SMAPeriods...), a.EMAPeriods...) {
		if p <= 0 {
			return fmt.Errorf("moving average periods must be positive, got %d", p)
		}
	}
	for name, p := range map[string]int{
		"rsi_period":   a.RSIPeriod,
		"macd_fast":    a.MACDFast,
		"macd_slow":    a.MACDSlow,
		"macd_signal":  a.MACDSignal,
		"bb_period":    a.BBPeriod,
		"stochastic_k": a.StochasticK,
		"stochastic_d": a.StochasticD,
	} {
		if p <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, p)
		}
	}
	if a.BBStdDev < 0 {
		return fmt.Errorf("bb_std_dev must be non-negative, got %v", a.BBStdDev)
	}
	return nil
}

// Indicators freezes the analysis parameters into the immutable indicator
// configuration consumed by the engine.
func (a AnalysisConfig) Indicators() services.IndicatorConfig {
	return services.IndicatorConfig{
		SMAPeriods:  append([]int{}, a.SMAPeriods...),
		EMAPeriods:  append([]int{}, a.EMAPeriods...),
		RSIPeriod:   a.RSIPeriod,
		MACDFast:    a.MACDFast,
		MACDSlow:    a.MACDSlow,
		MACDSignal:  a.MACDSignal,
		BBPeriod:    a.BBPeriod,
		BBStdDev:    a.BBStdDev,
		StochasticK: a.StochasticK,
		StochasticD: a.StochasticD,
	}
}
