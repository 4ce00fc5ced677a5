package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/siolink/siolink/pkg/siolink/config"
	"github.com/siolink/siolink/pkg/siolink/engine"
	"github.com/siolink/siolink/pkg/siolink/transport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose  bool
	debug    bool
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "siolink",
	Short: "Socket.IO client toolkit",
	Long: `siolink connects to Socket.IO (Engine.IO v4) servers over websockets,
listens for events, and emits events with optional acknowledgements.

Endpoints can be given directly as URLs or loaded from HCL profile files.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug output")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}

func setupLogger() (*zap.Logger, error) {
	level := logLevel

	// Flags override the configured level.
	if debug {
		level = "debug"
	} else if verbose && level == "info" {
		level = "debug"
	}

	var zapLevel zap.AtomicLevel
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn", "warning":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zapLevel
	cfg.Development = debug

	return cfg.Build()
}

// endpointFlags is the shared endpoint configuration surface for commands
// that open a connection.
type endpointFlags struct {
	configFile       string
	profile          string
	namespace        string
	auth             string
	headers          []string
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
	transportName    string
}

func addEndpointFlags(cmd *cobra.Command, f *endpointFlags) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "HCL profile file")
	cmd.Flags().StringVar(&f.profile, "profile", "", "endpoint profile name from --config")
	cmd.Flags().StringVarP(&f.namespace, "namespace", "n", "", "namespace to connect to (default \"/\")")
	cmd.Flags().StringVar(&f.auth, "auth", "", "JSON auth payload for the namespace connect")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra header for the opening request, as key=value")
	cmd.Flags().DurationVar(&f.dialTimeout, "dial-timeout", 10*time.Second, "websocket dial timeout")
	cmd.Flags().DurationVar(&f.handshakeTimeout, "handshake-timeout", 10*time.Second, "per-stage handshake timeout")
	cmd.Flags().StringVar(&f.transportName, "transport", "coder", "websocket implementation (coder or gorilla)")
}

// buildClient resolves the endpoint from the profile (if any) plus flag
// overrides, and constructs the engine client. urlArg may be empty when a
// profile supplies the URL.
func (f *endpointFlags) buildClient(urlArg string, logger *zap.Logger, handler engine.EventHandler) (*engine.Client, error) {
	builder := engine.NewClient().
		WithLogger(logger).
		WithHandler(handler).
		WithDialTimeout(f.dialTimeout).
		WithHandshakeTimeout(f.handshakeTimeout)

	if f.profile != "" {
		if f.configFile == "" {
			return nil, fmt.Errorf("--profile requires --config")
		}
		cfg, err := config.Load(f.configFile)
		if err != nil {
			return nil, err
		}
		ep, err := cfg.Endpoint(f.profile)
		if err != nil {
			return nil, err
		}
		builder.WithURL(ep.URL).
			WithNamespace(ep.Namespace).
			WithAuth(ep.Auth)
		for key, value := range ep.Headers {
			builder.WithHeader(key, value)
		}
		if ep.Backoff != nil {
			initial, max, err := ep.Backoff.Delays()
			if err != nil {
				return nil, err
			}
			builder.WithInitialDelay(initial).
				WithMaxDelay(max).
				WithBackoffFactor(ep.Backoff.Factor)
		}
	}

	if urlArg != "" {
		builder.WithURL(urlArg)
	}
	if f.namespace != "" {
		builder.WithNamespace(f.namespace)
	}
	if f.auth != "" {
		builder.WithAuth(f.auth)
	}
	for _, header := range f.headers {
		key, value, found := strings.Cut(header, "=")
		if !found {
			return nil, fmt.Errorf("invalid header %q, expected key=value", header)
		}
		builder.WithHeader(key, value)
	}

	switch f.transportName {
	case "coder":
		builder.WithDialer(&transport.CoderDialer{})
	case "gorilla":
		builder.WithDialer(&transport.GorillaDialer{HandshakeTimeout: f.dialTimeout})
	default:
		return nil, fmt.Errorf("unknown transport %q", f.transportName)
	}

	return builder.Build()
}
