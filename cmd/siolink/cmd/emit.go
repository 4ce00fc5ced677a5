package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// emitCmd represents the emit command
var emitCmd = &cobra.Command{
	Use:   "emit <url> <event> [args...]",
	Short: "Emit one event to a Socket.IO server",
	Long: `Connect to a Socket.IO server, emit a single event, and disconnect.

Arguments that are valid JSON literals (objects, arrays, numbers, booleans,
null) are sent as-is; everything else is sent as a JSON string.

Examples:
  siolink emit ws://localhost:3000/ chat.message "hello"
  siolink emit ws://localhost:3000/ update '{"id":7,"status":"done"}'
  siolink emit ws://localhost:3000/ query '{"id":7}' --ack --ack-timeout 5s`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEmit,
}

var (
	emitFlags      endpointFlags
	emitWantAck    bool
	emitAckTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(emitCmd)

	addEndpointFlags(emitCmd, &emitFlags)
	emitCmd.Flags().BoolVar(&emitWantAck, "ack", false, "request an acknowledgement and print the reply")
	emitCmd.Flags().DurationVar(&emitAckTimeout, "ack-timeout", 10*time.Second, "acknowledgement timeout")
}

func runEmit(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	url := args[0]
	event := args[1]
	eventArgs := args[2:]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &printingHandler{logger: logger}
	client, err := emitFlags.buildClient(url, logger, handler)
	if err != nil {
		return err
	}
	defer func() {
		client.Close()
		client.ProcessCallbacks()
	}()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	client.ProcessCallbacks()

	if emitWantAck {
		reply, err := client.EmitWithAck(ctx, event, eventArgs, emitAckTimeout)
		if err != nil {
			return fmt.Errorf("emit %q failed: %w", event, err)
		}
		fmt.Printf("[%s]\n", strings.Join(reply, ","))
	} else {
		if err := client.Emit(ctx, event, eventArgs...); err != nil {
			return fmt.Errorf("emit %q failed: %w", event, err)
		}
	}

	logger.Info("Event emitted", zap.String("event", event))
	return nil
}
