package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Storage       StorageConfig
	Billing       BillingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NETBILL_APP_ENV" required:"true"`
	Port         string `envconfig:"NETBILL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NETBILL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"NETBILL_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"NETBILL_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"NETBILL_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NETBILL_DB_DSN"`
	Driver string `envconfig:"NETBILL_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NETBILL_DB_HOST"`
	Port     int    `envconfig:"NETBILL_DB_PORT" default:"5432"`
	User     string `envconfig:"NETBILL_DB_USER"`
	Password string `envconfig:"NETBILL_DB_PASSWORD"`
	Name     string `envconfig:"NETBILL_DB_NAME"`
	SSLMode  string `envconfig:"NETBILL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NETBILL_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"NETBILL_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"NETBILL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NETBILL_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"NETBILL_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"NETBILL_REDIS_URL"`
	Address      string        `envconfig:"NETBILL_REDIS_ADDR"`
	Password     string        `envconfig:"NETBILL_REDIS_PASSWORD"`
	DB           int           `envconfig:"NETBILL_REDIS_DB" default:"0"`
	KeyPrefix    string        `envconfig:"NETBILL_REDIS_KEY_PREFIX" default:"nb"`
	PoolSize     int           `envconfig:"NETBILL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NETBILL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NETBILL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NETBILL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NETBILL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"NETBILL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"NETBILL_JWT_ISSUER" default:"netbill"`
	ExpirationMinutes      int    `envconfig:"NETBILL_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"NETBILL_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NETBILL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NETBILL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NETBILL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NETBILL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NETBILL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"NETBILL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"NETBILL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"NETBILL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NETBILL_AUTO_MIGRATE" default:"false"`
}

type StorageConfig struct {
	UploadRoot  string `envconfig:"NETBILL_UPLOAD_ROOT" default:"static/uploads"`
	MaxUploadMB int    `envconfig:"NETBILL_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabyte ceiling into bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

type BillingConfig struct {
	CronInterval       time.Duration `envconfig:"NETBILL_BILLING_CRON_INTERVAL" default:"24h"`
	AutoGenerate       bool          `envconfig:"NETBILL_BILLING_AUTO_GENERATE" default:"true"`
	GenerationLockTTL  time.Duration `envconfig:"NETBILL_BILLING_GENERATION_LOCK_TTL" default:"5m"`
	CatchUpMonths      int           `envconfig:"NETBILL_BILLING_CATCH_UP_MONTHS" default:"0"`
	SummaryMonthWindow int           `envconfig:"NETBILL_BILLING_SUMMARY_MONTHS" default:"6"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLitePath
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
