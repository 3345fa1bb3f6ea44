// Package kafka publishes canonicalization run events for downstream
// migration consumers: the import job that loads the new website's member
// store and the review tooling that watches for duplicate candidates.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion tags every message so consumers can handle payload changes.
const SchemaVersion = "1.0"

// Event types.
const (
	EventMemberCanonicalized = "member.canonicalized"
	EventDuplicateCandidate  = "duplicate.candidate"
	EventRunCompleted        = "run.completed"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// MemberEvent announces one canonical member to downstream importers. The
// payload carries only public columns; restricted fields never leave the
// engine over the event stream.
type MemberEvent struct {
	EventType        string            `json:"event_type"`
	RunID            string            `json:"run_id"`
	MemberID         string            `json:"member_id"`
	LegacyMemberID   string            `json:"legacy_member_id"`
	Active           bool              `json:"active"`
	ActiveConfidence models.Confidence `json:"active_confidence"`
	EvidenceCount    int               `json:"evidence_count"`
	EvidenceSummary  string            `json:"evidence_summary"`
	PolicyVersion    string            `json:"policy_version"`
	Timestamp        time.Time         `json:"timestamp"`
}

// DuplicateEvent announces one duplicate candidate group for review.
type DuplicateEvent struct {
	EventType         string    `json:"event_type"`
	RunID             string    `json:"run_id"`
	DuplicateKey      string    `json:"duplicate_key"`
	MemberIDs         []string  `json:"member_ids"`
	Reason            string    `json:"reason"`
	RecommendedAction string    `json:"recommended_action"`
	Timestamp         time.Time `json:"timestamp"`
}

// RunEvent announces a completed run with its summary counters.
type RunEvent struct {
	EventType     string          `json:"event_type"`
	RunID         string          `json:"run_id"`
	PolicyVersion string          `json:"policy_version"`
	Stats         models.RunStats `json:"stats"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (p *Producer) publish(ctx context.Context, messages ...kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"batch_size": len(messages),
		}).Error("Failed to publish events")
		return err
	}
	return nil
}

func headers(eventType, runID string) []kafka.Header {
	return []kafka.Header{
		{Key: "event_type", Value: []byte(eventType)},
		{Key: "run_id", Value: []byte(runID)},
		{Key: "schema_version", Value: []byte(SchemaVersion)},
	}
}

// PublishMemberEvents publishes one member.canonicalized event per canonical
// member, keyed by member_id so per-member ordering holds across runs.
func (p *Producer) PublishMemberEvents(ctx context.Context, runID, policyVersion string, members []models.CanonicalMember) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishMemberEvents")
	defer span.End()

	if len(members) == 0 {
		return nil
	}

	now := time.Now().UTC()
	messages := make([]kafka.Message, len(members))
	for i, m := range members {
		event := MemberEvent{
			EventType:        EventMemberCanonicalized,
			RunID:            runID,
			MemberID:         m.MemberID,
			LegacyMemberID:   m.LegacyMemberID,
			Active:           m.Active,
			ActiveConfidence: m.ActiveConfidence,
			EvidenceCount:    m.EvidenceCount,
			EvidenceSummary:  m.EvidenceSummary,
			PolicyVersion:    policyVersion,
			Timestamp:        now,
		}

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic:   p.topic,
			Key:     []byte(m.MemberID),
			Value:   data,
			Headers: headers(EventMemberCanonicalized, runID),
		}
	}

	if err := p.publish(ctx, messages...); err != nil {
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     runID,
		"batch_size": len(messages),
	}).Debug("Published member events batch")
	return nil
}

// PublishDuplicateEvents publishes one duplicate.candidate event per group.
func (p *Producer) PublishDuplicateEvents(ctx context.Context, runID string, groups []models.DuplicateCandidateGroup) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDuplicateEvents")
	defer span.End()

	if len(groups) == 0 {
		return nil
	}

	now := time.Now().UTC()
	messages := make([]kafka.Message, len(groups))
	for i, g := range groups {
		event := DuplicateEvent{
			EventType:         EventDuplicateCandidate,
			RunID:             runID,
			DuplicateKey:      g.DuplicateKey,
			MemberIDs:         g.MemberIDs,
			Reason:            g.Reason,
			RecommendedAction: g.RecommendedAction,
			Timestamp:         now,
		}

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}

		messages[i] = kafka.Message{
			Topic:   p.topic,
			Key:     []byte(g.DuplicateKey),
			Value:   data,
			Headers: headers(EventDuplicateCandidate, runID),
		}
	}

	if err := p.publish(ctx, messages...); err != nil {
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":     runID,
		"batch_size": len(messages),
	}).Debug("Published duplicate events batch")
	return nil
}

// PublishRunCompleted publishes the run.completed summary event.
func (p *Producer) PublishRunCompleted(ctx context.Context, runID, policyVersion string, stats models.RunStats) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRunCompleted")
	defer span.End()

	event := RunEvent{
		EventType:     EventRunCompleted,
		RunID:         runID,
		PolicyVersion: policyVersion,
		Stats:         stats,
		Timestamp:     time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(runID),
		Value:   data,
		Headers: headers(EventRunCompleted, runID),
	}

	if err := p.publish(ctx, msg); err != nil {
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": runID,
	}).Debug("Published run completed event")
	return nil
}
