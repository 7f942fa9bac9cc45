package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"angles-reporter/src/broker"
	"angles-reporter/src/config"
	"angles-reporter/src/contracts"
	"angles-reporter/src/logger"
	"angles-reporter/src/render"
)

var (
	tailTopic string
	tailGroup string
	tailLimit int
	tailWidth int
)

// newTailBroker opens the broker tail reads from. Replaced in tests.
var newTailBroker = func(cfg *config.Config, log logger.Logger) (broker.Broker, error) {
	if !cfg.MirrorEnabled() {
		return nil, errNoBrokers
	}
	return broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
}

var errNoBrokers = errors.New("tail needs REDPANDA_BROKERS (or redpanda_brokers in --config)")

// tailCmd follows mirrored report events.
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow mirrored report events from Redpanda",
	Long: `Subscribes to a mirror topic and prints each event as it arrives.
Saved executions are rendered with their actions and steps.

Example:
  REDPANDA_BROKERS=localhost:19092 angles tail --topic angles.executions`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		brk, err := newTailBroker(appConfig, log)
		if err != nil {
			return err
		}
		defer brk.Close()

		ch, err := brk.Subscribe(cmd.Context(), tailTopic, tailGroup)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", tailTopic, err)
		}
		log.Info("[Tail] Following %s as group %s", tailTopic, tailGroup)

		return tailEvents(cmd.Context(), ch, tailLimit, cmd.OutOrStdout(), render.New(nil), tailWidth, log)
	},
}

func init() {
	tailCmd.Flags().StringVar(&tailTopic, "topic", contracts.TopicExecutions, "Topic to follow")
	tailCmd.Flags().StringVar(&tailGroup, "group", "angles-tail", "Consumer group")
	tailCmd.Flags().IntVar(&tailLimit, "limit", 0, "Stop after this many events (0 follows until interrupted)")
	tailCmd.Flags().IntVar(&tailWidth, "width", 100, "Render width in columns")
}

// tailEvents prints events from ch until limit events were printed, ch closes
// or ctx ends. Undecodable messages are logged and skipped.
func tailEvents(ctx context.Context, ch <-chan broker.Message, limit int, out io.Writer, r *render.Renderer, width int, log logger.Logger) error {
	printed := 0
	for limit <= 0 || printed < limit {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(out, r, msg.Value, width); err != nil {
				log.Warn("[Tail] Skipping message at %s/%d offset %d: %v", msg.Topic, msg.Partition, msg.Offset, err)
				continue
			}
			printed++
		}
	}
	return nil
}

func printEvent(out io.Writer, r *render.Renderer, data []byte, width int) error {
	var event contracts.ReportEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	fmt.Fprintf(out, "%s %s build=%s\n", event.Timestamp, event.Type, event.BuildID)

	switch event.Type {
	case contracts.EventExecutionSaved:
		var payload contracts.ExecutionSavedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		if payload.Ack != nil {
			fmt.Fprintf(out, "  execution %s\n", payload.Ack.ID)
		}
		fmt.Fprint(out, r.Execution(payload.Execution, width))

	case contracts.EventBuildCreated, contracts.EventArtifactsAdded:
		var build contracts.Build
		if err := json.Unmarshal(event.Payload, &build); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		fmt.Fprintln(out, r.Build(&build, width))

	case contracts.EventScreenshotStored:
		var shot contracts.Screenshot
		if err := json.Unmarshal(event.Payload, &shot); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		fmt.Fprintf(out, "  screenshot %s view=%s\n", shot.ID, shot.View)
	}
	return nil
}
