package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/messaging/kafka"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "events", Short: "Inspect order events in Kafka"}

	var (
		brokers    string
		topic      string
		group      string
		fromOldest bool
	)
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print order events until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := splitBrokers(brokers)
			if len(list) == 0 {
				return fmt.Errorf("--brokers is required")
			}

			out := cmd.OutOrStdout()
			consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
				Brokers:    list,
				GroupID:    group,
				Topics:     []string{topic},
				FromOldest: fromOldest,
			}, func(_ context.Context, message *sarama.ConsumerMessage) error {
				return printEvent(out, message)
			}, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			consumer.Start(ctx)
			<-ctx.Done()
			return consumer.Stop()
		},
	}
	tail.Flags().StringVar(&brokers, "brokers", "localhost:9092", "comma-separated Kafka brokers")
	tail.Flags().StringVar(&topic, "topic", kafka.TopicOrderEvents, "order events topic")
	tail.Flags().StringVar(&group, "group", "storectl", "consumer group id")
	tail.Flags().BoolVar(&fromOldest, "from-oldest", false, "start from the oldest offset")

	cmd.AddCommand(tail, replayCmd())
	return cmd
}

func replayCmd() *cobra.Command {
	var (
		brokers string
		cfg     = kafka.ReplayConfig{
			SourceTopic: kafka.TopicDeadLetterQueue,
			TargetTopic: kafka.TopicOrderEvents,
			Limit:       kafka.DefaultReplayLimit,
			IdleTimeout: kafka.DefaultReplayIdleTimeout,
		}
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Return dead-lettered order events to the events topic (dry-run by default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := splitBrokers(brokers)
			if len(list) == 0 {
				return fmt.Errorf("--brokers is required")
			}

			replayer, err := kafka.NewReplayer(list, cfg)
			if err != nil {
				return err
			}
			defer replayer.Close()

			stats, err := replayer.Replay(cmd.Context())
			if err != nil {
				return err
			}
			return printReplayStats(cmd.OutOrStdout(), cfg.Execute, stats)
		},
	}
	cmd.Flags().StringVar(&brokers, "brokers", "localhost:9092", "comma-separated Kafka brokers")
	cmd.Flags().StringVar(&cfg.SourceTopic, "source-topic", cfg.SourceTopic, "DLQ topic")
	cmd.Flags().StringVar(&cfg.TargetTopic, "target-topic", cfg.TargetTopic, "topic for outbox events")
	cmd.Flags().IntVar(&cfg.Limit, "limit", cfg.Limit, "max messages to scan")
	cmd.Flags().BoolVar(&cfg.Execute, "execute", false, "publish instead of dry-run")
	cmd.Flags().BoolVar(&cfg.FromNewest, "from-newest", false, "scan the latest messages of each partition")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "stop reading a partition after this idle period")
	return cmd
}

func printReplayStats(out io.Writer, execute bool, stats kafka.ReplayStats) error {
	mode := "dry-run"
	if execute {
		mode = "execute"
	}
	_, err := fmt.Fprintf(out, "%s: processed=%d replayed=%d skipped=%d\n", mode, stats.Processed, stats.Replayed, stats.Skipped)
	return err
}

// printEvent печатает одну строку на событие; нераспознанные события
// выводятся без payload.
func printEvent(out io.Writer, message *sarama.ConsumerMessage) error {
	env, err := kafka.ParseEnvelope(message)
	if err != nil {
		return err
	}
	if env.EventType != domain.EventTypeOrderCreated {
		_, err = fmt.Fprintf(out, "%s %s %s/%s\n", env.PublishedAt.Format("15:04:05"), env.EventType, env.AggregateType, env.AggregateID)
		return err
	}

	event, err := kafka.ParseOrderCreated(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s order=%d user=%s items=%d total=%s\n",
		env.PublishedAt.Format("15:04:05"), env.EventType, event.OrderID, event.UserName, event.ItemsCount, event.Total.StringFixed(2))
	return err
}

func splitBrokers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
