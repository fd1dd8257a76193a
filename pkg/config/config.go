package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("config", fx.Provide(LoadConfig))

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`

	// VendorName is the company operating the back office. Records whose
	// manager has no partner affiliation are attributed to it.
	VendorName string `mapstructure:"VENDOR_NAME"`

	TLS struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`

	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`

	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		EnableTracing  bool   `mapstructure:"ENABLE_TRACING"`
		EnableMetrics  bool   `mapstructure:"ENABLE_METRICS"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConn     int           `mapstructure:"MAX_OPEN_CONN"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`

	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`

	Identity struct {
		Addr     string        `mapstructure:"ADDR"`
		Token    string        `mapstructure:"TOKEN"`
		Timeout  time.Duration `mapstructure:"TIMEOUT"`
		CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
	} `mapstructure:"IDENTITY"`

	// Catalog is the default product seeded on a fresh install.
	Catalog struct {
		ProductName     string `mapstructure:"PRODUCT_NAME"`
		ProductCategory string `mapstructure:"PRODUCT_CATEGORY"`
		ProductVersion  string `mapstructure:"PRODUCT_VERSION"`
	} `mapstructure:"CATALOG"`
}

func LoadConfig() *Config {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		zap.L().Warn("config file not found, relying on environment", zap.Error(err))
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		zap.L().Fatal("failed to unmarshal config", zap.Error(err))
	}

	return cfg
}

func defaults() *Config {
	cfg := &Config{}
	cfg.AppEnv = "development"
	cfg.AppName = "ablecloud-backoffice"
	cfg.VendorName = "ABLECLOUD"
	cfg.Server.Addr = "8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.IdleTimeout = time.Minute
	cfg.Database.Type = "sqlite"
	cfg.Database.DBNAME = "backoffice.db"
	cfg.Identity.Timeout = 5 * time.Second
	cfg.Identity.CacheTTL = 5 * time.Minute
	return cfg
}
