package config

// Configuration sources
const (
	// ConfigFileEnv names the environment variable pointing at a YAML config file
	ConfigFileEnv = "PARASPLIT_CONFIG_FILE"
	// DefaultConfigFile is read from the working directory when ConfigFileEnv is unset
	DefaultConfigFile = "parasplit.yaml"
	// DotEnvFile is loaded from the working directory when present
	DotEnvFile = ".env"
)

// Defaults
const (
	ServiceName = "parasplit"

	DefaultInputPath        = "en-ne.txt"
	DefaultSourceOutputPath = "english.txt"
	DefaultTargetOutputPath = "nepali.txt"

	DefaultLogLevel = "warn"
)
