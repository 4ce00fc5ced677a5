package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/siolink/siolink/pkg/siolink/engine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen [url]",
	Short: "Connect to a Socket.IO server and print incoming events",
	Long: `Connect to a Socket.IO server and print every incoming event to stdout
as "event<TAB>[json args]".

The URL is the base server address; the socket.io path is appended
automatically. It can also come from a profile:

Examples:
  siolink listen ws://localhost:3000/
  siolink listen ws://localhost:3000/ --namespace /chat
  siolink listen --config endpoints.hcl --profile staging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runListen,
}

var (
	listenFlags    endpointFlags
	listenInterval time.Duration
)

func init() {
	rootCmd.AddCommand(listenCmd)

	addEndpointFlags(listenCmd, &listenFlags)
	listenCmd.Flags().DurationVar(&listenInterval, "poll-interval", 50*time.Millisecond, "callback drain interval")
}

func runListen(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	url := ""
	if len(args) > 0 {
		url = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &printingHandler{logger: logger}
	client, err := listenFlags.buildClient(url, logger, handler)
	if err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		// The engine keeps retrying in the background; report the first
		// attempt's failure and keep listening.
		logger.Warn("Initial connect failed, retrying in background", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Listening for events... (Press Ctrl+C to exit)")

	ticker := time.NewTicker(listenInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			client.ProcessCallbacks()

		case sig := <-sigChan:
			logger.Debug("Signal received, exiting", zap.String("signal", sig.String()))
			if err := client.Close(); err != nil {
				logger.Warn("Error during client close", zap.Error(err))
			}
			client.ProcessCallbacks()
			logger.Info("Shutdown complete")
			return nil

		case <-ctx.Done():
			if err := client.Close(); err != nil {
				logger.Warn("Error during client close", zap.Error(err))
			}
			client.ProcessCallbacks()
			return nil
		}
	}
}

// printingHandler writes each event to stdout and logs lifecycle changes.
type printingHandler struct {
	engine.BaseHandler
	logger *zap.Logger
}

func (h *printingHandler) OnOpen(ctx context.Context) {
	h.logger.Info("Connection open")
}

func (h *printingHandler) OnClose(ctx context.Context, err error) {
	if err != nil {
		h.logger.Warn("Connection closed", zap.Error(err))
		return
	}
	h.logger.Info("Connection closed")
}

func (h *printingHandler) OnError(ctx context.Context, err error) {
	h.logger.Error("Engine error", zap.Error(err))
}

func (h *printingHandler) OnEvent(ctx context.Context, event string, args []string) {
	// args are raw JSON literals; joining them reconstitutes the array.
	fmt.Printf("%s\t[%s]\n", event, strings.Join(args, ","))
}
