package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"predictive-sim/internal/telemetry"
)

// Default topics used by KafkaWriter.
const (
	DefaultTelemetryTopic = "machine-telemetry"
	DefaultSummaryTopic   = "machine-run-summary"
)

type kafkaProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaWriter publishes rows and summaries as JSON records keyed by machine id.
type KafkaWriter struct {
	client       kafkaProducer
	topic        string
	summaryTopic string
	timeout      time.Duration
}

// NewKafkaWriter connects to a comma separated broker list.
func NewKafkaWriter(brokers, topic, summaryTopic string) (*KafkaWriter, error) {
	if topic == "" {
		topic = DefaultTelemetryTopic
	}
	if summaryTopic == "" {
		summaryTopic = DefaultSummaryTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RetryTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaWriter{client: client, topic: topic, summaryTopic: summaryTopic, timeout: 30 * time.Second}, nil
}

// Write publishes a single telemetry row.
func (w *KafkaWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch publishes rows and waits for every acknowledgement.
func (w *KafkaWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}
	recs := make([]*kgo.Record, 0, len(rows))
	for _, r := range rows {
		v, err := json.Marshal(r)
		if err != nil {
			return err
		}
		recs = append(recs, &kgo.Record{Topic: w.topic, Key: []byte(r.MachineID), Value: v})
	}
	return w.produce(recs...)
}

// WriteSummary publishes a run summary to the summary topic.
func (w *KafkaWriter) WriteSummary(row telemetry.RunSummaryRow) error {
	v, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return w.produce(&kgo.Record{Topic: w.summaryTopic, Key: []byte(row.MachineID), Value: v})
}

func (w *KafkaWriter) produce(recs ...*kgo.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.client.ProduceSync(ctx, recs...).FirstErr(); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

// Close flushes and closes the client.
func (w *KafkaWriter) Close() error {
	w.client.Close()
	return nil
}
