package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "prefill"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.enable_cors", true)

	v.SetDefault("engine.cas_threshold_minutes", 25)
	v.SetDefault("engine.pre_close_minutes", 60)
	v.SetDefault("engine.band_upper_ratio", 1.03)
	v.SetDefault("engine.band_lower_ratio", 0.97)
	v.SetDefault("engine.total_trading_minutes", 390)
	v.SetDefault("engine.crossing_size_threshold", 5.0)
	v.SetDefault("engine.crossing_min_pct", 0.2)
	v.SetDefault("engine.crossing_max_pct", 0.5)
	v.SetDefault("engine.iwould_urgency_threshold", 40)
	v.SetDefault("engine.iwould_price_offset", 0.005)
	v.SetDefault("engine.iwould_qty_pct", 0.3)
	v.SetDefault("engine.limit_peg_urgency_threshold", 80)

	v.SetDefault("database.path", "data/prefill.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)
	v.SetDefault("database.seed_demo_data", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
