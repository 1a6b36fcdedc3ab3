package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ServerConfig 控制对外 HTTP 服务。
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors"`
}

// EngineConfig 管理预填引擎的全部阈值参数。
// 构造引擎时注入，运行期间不可变。
type EngineConfig struct {
	CASThresholdMinutes int     `mapstructure:"cas_threshold_minutes"`
	PreCloseMinutes     int     `mapstructure:"pre_close_minutes"`
	BandUpperRatio      float64 `mapstructure:"band_upper_ratio"`
	BandLowerRatio      float64 `mapstructure:"band_lower_ratio"`
	TotalTradingMinutes int     `mapstructure:"total_trading_minutes"`

	CrossingSizeThreshold float64 `mapstructure:"crossing_size_threshold"`
	CrossingMinPct        float64 `mapstructure:"crossing_min_pct"`
	CrossingMaxPct        float64 `mapstructure:"crossing_max_pct"`

	IWouldUrgencyThreshold int     `mapstructure:"iwould_urgency_threshold"`
	IWouldPriceOffset      float64 `mapstructure:"iwould_price_offset"`
	IWouldQtyPct           float64 `mapstructure:"iwould_qty_pct"`

	LimitPegUrgencyThreshold int `mapstructure:"limit_peg_urgency_threshold"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
	SeedDemoData    bool          `mapstructure:"seed_demo_data"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, errors.New("server.port 必须位于(0,65535]"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout 必须大于0"))
	}
	if c.Engine.CASThresholdMinutes <= 0 {
		err = multierr.Append(err, errors.New("engine.cas_threshold_minutes 必须大于0"))
	}
	if c.Engine.PreCloseMinutes < c.Engine.CASThresholdMinutes {
		err = multierr.Append(err, errors.New("engine.pre_close_minutes 不能小于 cas_threshold_minutes"))
	}
	if c.Engine.BandUpperRatio <= 1 {
		err = multierr.Append(err, errors.New("engine.band_upper_ratio 必须大于1"))
	}
	if c.Engine.BandLowerRatio <= 0 || c.Engine.BandLowerRatio >= 1 {
		err = multierr.Append(err, errors.New("engine.band_lower_ratio 必须位于(0,1)"))
	}
	if c.Engine.TotalTradingMinutes <= 0 {
		err = multierr.Append(err, errors.New("engine.total_trading_minutes 必须大于0"))
	}
	if c.Engine.CrossingSizeThreshold <= 0 {
		err = multierr.Append(err, errors.New("engine.crossing_size_threshold 必须大于0"))
	}
	if c.Engine.CrossingMinPct <= 0 || c.Engine.CrossingMinPct >= 1 {
		err = multierr.Append(err, errors.New("engine.crossing_min_pct 必须位于(0,1)"))
	}
	if c.Engine.CrossingMaxPct <= c.Engine.CrossingMinPct || c.Engine.CrossingMaxPct > 1 {
		err = multierr.Append(err, errors.New("engine.crossing_max_pct 必须位于(crossing_min_pct,1]"))
	}
	if c.Engine.IWouldUrgencyThreshold < 0 || c.Engine.IWouldUrgencyThreshold > 100 {
		err = multierr.Append(err, errors.New("engine.iwould_urgency_threshold 必须位于[0,100]"))
	}
	if c.Engine.IWouldPriceOffset <= 0 || c.Engine.IWouldPriceOffset >= 1 {
		err = multierr.Append(err, errors.New("engine.iwould_price_offset 必须位于(0,1)"))
	}
	if c.Engine.IWouldQtyPct <= 0 || c.Engine.IWouldQtyPct > 1 {
		err = multierr.Append(err, errors.New("engine.iwould_qty_pct 必须位于(0,1]"))
	}
	if c.Engine.LimitPegUrgencyThreshold < 0 || c.Engine.LimitPegUrgencyThreshold > 100 {
		err = multierr.Append(err, errors.New("engine.limit_peg_urgency_threshold 必须位于[0,100]"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
