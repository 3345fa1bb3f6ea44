// clover-run executes one canonicalization run: it reads the stage-1
// extraction tables, produces the stage-2 canonical tables and reports, and
// optionally persists the results and announces them on Kafka.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/canonicalmember"
	"github.com/Ramsey-B/clover/internal/repositories/duplicatecandidate"
	"github.com/Ramsey-B/clover/internal/repositories/runreport"
	"github.com/Ramsey-B/clover/pkg/canonicalizer"
	"github.com/Ramsey-B/clover/pkg/coverage"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/policy"
	"github.com/Ramsey-B/clover/pkg/tabular"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(context.Background(), cfg, logger); err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		logger.WithError(err).Error("Run failed")
		os.Exit(1)
	}
	metrics.RunsTotal.WithLabelValues("succeeded").Inc()
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapLogger, _ := zapCfg.Build()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	start := time.Now()

	if cfg.TracingEnabled {
		shutdown := tracing.Init(cfg.AppName)
		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.WithError(err).Warn("Failed to shut down tracer provider")
			}
		}()
	}

	pol := policy.Default()
	if cfg.PolicyProfileURLTemplate != "" {
		pol.ProfileURLTemplate = cfg.PolicyProfileURLTemplate
	}
	if cfg.PolicyDuplicateKeyNormalizers != "" {
		pol.DuplicateKeyNormalizers = nil
		for _, name := range strings.Split(cfg.PolicyDuplicateKeyNormalizers, ",") {
			pol.DuplicateKeyNormalizers = append(pol.DuplicateKeyNormalizers, strings.TrimSpace(name))
		}
	}

	raw, evidenceRows, err := readInputs(cfg, logger)
	if err != nil {
		return err
	}

	engine, err := canonicalizer.NewEngine(logger, pol)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, raw, evidenceRows)
	if err != nil {
		return err
	}
	recordRunMetrics(result)

	if err := writeOutputs(cfg.OutputDir, result); err != nil {
		return err
	}

	runID := uuid.New().String()

	if cfg.PersistEnabled {
		if err := persist(ctx, cfg, logger, runID, pol.Version, result); err != nil {
			return err
		}
	}

	if cfg.KafkaEnabled {
		if err := announce(ctx, cfg, logger, runID, pol.Version, result); err != nil {
			return err
		}
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.WithFields(map[string]any{
		"run_id":          runID,
		"canonical_count": result.Stats.CanonicalCount,
		"active_count":    result.Stats.ActiveCount,
		"output_dir":      cfg.OutputDir,
		"duration":        time.Since(start).Round(time.Millisecond).String(),
	}).Info("Run complete")

	return nil
}

func readInputs(cfg *config.Config, logger ectologger.Logger) ([]models.RawMemberExtraction, []models.ActivityEvidence, error) {
	membersTable, err := tabular.ParseFile(cfg.MembersInputPath)
	if err != nil {
		return nil, nil, err
	}
	logTableWarnings(logger, cfg.MembersInputPath, membersTable)
	raw := tabular.DecodeRawMembers(membersTable)

	var evidenceRows []models.ActivityEvidence
	if _, err := os.Stat(cfg.EvidenceInputPath); err == nil {
		evidenceTable, err := tabular.ParseFile(cfg.EvidenceInputPath)
		if err != nil {
			return nil, nil, err
		}
		logTableWarnings(logger, cfg.EvidenceInputPath, evidenceTable)
		evidenceRows = tabular.DecodeEvidence(evidenceTable)
	} else {
		logger.WithFields(map[string]any{
			"path": cfg.EvidenceInputPath,
		}).Warn("Evidence input not found, running without activity evidence")
	}

	return raw, evidenceRows, nil
}

func logTableWarnings(logger ectologger.Logger, path string, t *tabular.Table) {
	for _, w := range t.Warnings {
		logger.WithFields(map[string]any{
			"path": path,
			"row":  w.Row,
		}).Warn(w.Message)
	}
	logger.WithFields(map[string]any{
		"path":     path,
		"rows":     len(t.Rows),
		"warnings": len(t.Warnings),
		"encoding": t.Encoding,
	}).Info("Parsed input table")
}

func recordRunMetrics(result *models.RunResult) {
	metrics.MembersCanonicalized.Add(float64(result.Stats.CanonicalCount))
	metrics.OrphanEvidence.Add(float64(result.Stats.OrphanEvidenceCount))
	metrics.DuplicateGroupsDetected.Add(float64(result.Stats.DuplicateGroupCount))
	for _, m := range result.Members {
		status := "inactive"
		if m.Active {
			status = "active"
		}
		metrics.MembersClassified.WithLabelValues(status, string(m.ActiveConfidence)).Inc()
	}
	for _, e := range result.Exclusions {
		metrics.RowsExcluded.WithLabelValues(e.Reason).Inc()
	}
}

func writeOutputs(outputDir string, result *models.RunResult) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}

	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"stage2_members_canonical.csv", func(f *os.File) error { return tabular.WriteMembers(f, result.Members) }},
		{"stage2_member_activity.csv", func(f *os.File) error { return tabular.WriteEvidence(f, result.Evidence) }},
		{"stage2_members_active.csv", func(f *os.File) error { return tabular.WriteActiveMembers(f, result.Members) }},
		{"dedup_report.csv", func(f *os.File) error { return tabular.WriteDuplicates(f, result.Duplicates) }},
		{"exclusions.csv", func(f *os.File) error { return tabular.WriteExclusions(f, result.Exclusions) }},
	}

	for _, out := range files {
		path := filepath.Join(outputDir, out.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := out.write(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}

	reportPath := filepath.Join(outputDir, "field_coverage_report.md")
	if err := os.WriteFile(reportPath, []byte(coverage.Markdown(result.Coverage)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", reportPath, err)
	}

	return nil
}

func persist(ctx context.Context, cfg *config.Config, logger ectologger.Logger, runID, policyVersion string, result *models.RunResult) error {
	dbCfg := database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}

	db, err := database.Connect(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	instance, ok := db.(*database.DatabaseInstance)
	if ok {
		if err := database.Migrate(instance.DB, cfg.DatabaseName, cfg.DatabaseMigrationFolderPath, logger); err != nil {
			return err
		}
	}

	runs := runreport.NewRepository(db, logger)
	if _, err := runs.Create(ctx, runID, policyVersion, result.Stats, result.Coverage); err != nil {
		return err
	}

	members := canonicalmember.NewRepository(db, logger)
	if err := members.UpsertBatch(ctx, runID, result.Members); err != nil {
		return err
	}

	duplicates := duplicatecandidate.NewRepository(db, logger)
	if err := duplicates.ReplaceForRun(ctx, runID, result.Duplicates); err != nil {
		return err
	}

	logger.WithFields(map[string]any{"run_id": runID}).Info("Persisted run results")
	return nil
}

func announce(ctx context.Context, cfg *config.Config, logger ectologger.Logger, runID, policyVersion string, result *models.RunResult) error {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	if err := producer.PublishMemberEvents(ctx, runID, policyVersion, result.Members); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(kafka.EventMemberCanonicalized).Add(float64(len(result.Members)))

	if err := producer.PublishDuplicateEvents(ctx, runID, result.Duplicates); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(kafka.EventDuplicateCandidate).Add(float64(len(result.Duplicates)))

	if err := producer.PublishRunCompleted(ctx, runID, policyVersion, result.Stats); err != nil {
		return err
	}
	metrics.EventsPublished.WithLabelValues(kafka.EventRunCompleted).Inc()

	return nil
}
