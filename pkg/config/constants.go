package config

const (
	EnvPrefix = "NETBILL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres  = "postgres"
	DBDriverSQLite    = "sqlite"
	DefaultSQLitePath = "netbill.db"

	EnvAppEnv       = "NETBILL_APP_ENV"
	EnvPort         = "NETBILL_APP_PORT"
	EnvDBDSN        = "NETBILL_DB_DSN"
	EnvDBDriver     = "NETBILL_DB_DRIVER"
	EnvDBHost       = "NETBILL_DB_HOST"
	EnvDBUser       = "NETBILL_DB_USER"
	EnvDBName       = "NETBILL_DB_NAME"
	EnvRedisURL     = "NETBILL_REDIS_URL"
	EnvJWTSecret    = "NETBILL_JWT_SECRET"
	EnvUploadRoot   = "NETBILL_UPLOAD_ROOT"
	EnvCronInterval = "NETBILL_BILLING_CRON_INTERVAL"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
