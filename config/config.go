package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Postgres Postgres
	Redis    Redis
	HTTP     HTTP
	Auth     Auth
	API      API
	Catalog  Catalog
	Fx       Fx
	Cache    Cache
	Jobs     Jobs
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	SSLMode         string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" envDefault:""`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type HTTP struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":5000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type API struct {
	Debug   bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	CmcApi  CmcApi
	FxApi   FxApi
}

type CmcApi struct {
	Url       string `env:"CMC_API_URL" envDefault:"https://pro-api.coinmarketcap.com"`
	Key       string `env:"CMC_API_KEY"`
	RateLimit int    `env:"CMC_RATE_LIMIT" envDefault:"5"`
}

type FxApi struct {
	Url string `env:"FX_API_URL" envDefault:"https://open.er-api.com"`
}

type Catalog struct {
	ListingLimit  int `env:"CATALOG_LISTING_LIMIT" envDefault:"500"`
	TrendingLimit int `env:"CATALOG_TRENDING_LIMIT" envDefault:"20"`
}

type Fx struct {
	BaseCurrency    string        `env:"FX_BASE_CURRENCY" envDefault:"USD"`
	DisplayCurrency string        `env:"FX_DISPLAY_CURRENCY" envDefault:"NGN"`
	TTL             time.Duration `env:"FX_TTL" envDefault:"24h"`
}

type Cache struct {
	Backend           string        `env:"CACHE_BACKEND" envDefault:"memory"`
	SymbolsExpiration time.Duration `env:"CACHE_SYMBOLS_EXPIRATION" envDefault:"0s"`
}

type Jobs struct {
	SyncAssetsCrontab string        `env:"SYNC_ASSETS_JOB_CRONTAB" envDefault:"0 2 * * *"`
	RefreshFxCrontab  string        `env:"REFRESH_FX_JOB_CRONTAB" envDefault:"0 1 * * *"`
	SnapshotInterval  time.Duration `env:"SNAPSHOT_JOB_INTERVAL" envDefault:"1h"`
	StartImmediately  bool          `env:"JOBS_START_IMMEDIATELY" envDefault:"false"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
