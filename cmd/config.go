package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
	"github.com/joltsms/joltsms-mcp/internal/server"
)

// Supported transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// envPrefix namespaces every serve setting in the environment,
// e.g. --api-key is read from JOLTSMS_API_KEY.
const envPrefix = "JOLTSMS"

// errMissingAPIKey is the only condition that stops the server at startup.
var errMissingAPIKey = errors.New("Missing required env: JOLTSMS_API_KEY\nCreate an API key at https://app.joltsms.com/settings")

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool `mapstructure:"metrics-enabled"`

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string `mapstructure:"metrics-addr" validate:"required"`
}

// ServeConfig is the resolved configuration of the serve command, merged
// from flags and environment.
type ServeConfig struct {
	APIKey        string `mapstructure:"api-key"`
	APIURL        string `mapstructure:"api-url" validate:"required,url"`
	Transport     string `mapstructure:"transport" validate:"oneof=stdio streamable-http"`
	HTTPAddr      string `mapstructure:"http-addr" validate:"required"`
	HTTPAuthToken string `mapstructure:"http-auth-token"`
	ReadOnly      bool   `mapstructure:"read-only"`
	Debug         bool   `mapstructure:"debug"`
	LogFormat     string `mapstructure:"log-format" validate:"oneof=text json"`

	Metrics MetricsConfig `mapstructure:",squash"`
}

func addServeFlags(flags *pflag.FlagSet) {
	flags.String("api-key", "", "JoltSMS API key (jolt_sk_...)")
	flags.String("api-url", joltsms.DefaultBaseURL, "JoltSMS API origin")
	flags.String("transport", TransportStdio, "Transport type: stdio or streamable-http")
	flags.String("http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	flags.String("http-auth-token", "", "Static bearer token required on the MCP endpoint (streamable-http only)")
	flags.Bool("read-only", false, "Register only tools that do not modify numbers, messages or billing")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "text", "Log format: text or json")
	flags.Bool("metrics-enabled", false, "Serve Prometheus metrics on a dedicated port (streamable-http only)")
	flags.String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")
}

// newServeViper binds flags to their environment variables. The metrics
// settings also honour the unprefixed METRICS_ENABLED and METRICS_ADDR.
func newServeViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := v.BindEnv("metrics-enabled", "JOLTSMS_METRICS_ENABLED", "METRICS_ENABLED"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("metrics-addr", "JOLTSMS_METRICS_ADDR", "METRICS_ADDR"); err != nil {
		return nil, err
	}
	return v, nil
}

// loadServeConfig resolves and validates the serve configuration.
func loadServeConfig(v *viper.Viper) (*ServeConfig, error) {
	var config ServeConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.APIKey == "" {
		return nil, errMissingAPIKey
	}
	config.Transport = strings.ToLower(strings.TrimSpace(config.Transport))
	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration values.
func (c ServeConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s: invalid value %q (%s)", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
		}
		return err
	}
	return nil
}
