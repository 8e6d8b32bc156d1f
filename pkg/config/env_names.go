package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "HOSTELCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "HOSTELCART_DB_DSN"
	EnvDBHost = "HOSTELCART_DB_HOST"
	EnvDBUser = "HOSTELCART_DB_USER"
	EnvDBName = "HOSTELCART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
