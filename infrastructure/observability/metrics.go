package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"backersync/config"
	"backersync/domain/entities"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the sync job
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	// Metric instruments
	backersFetchedCounter metric.Int64Counter
	rolesGrantedCounter   metric.Int64Counter
	backersSkippedCounter metric.Int64Counter
	runsCounter           metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Debug("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	// Create appropriate exporter based on config
	var exporter sdkmetric.Exporter
	var err error
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Infof("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none", "":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	return mp.initializeWithReader(reader)
}

// initializeWithReader builds the meter provider around reader. Caller holds mp.mu.
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	mp.meter = mp.meterProvider.Meter("backersync")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.backersFetchedCounter, err = mp.meter.Int64Counter(
		BackersFetchedTotal,
		metric.WithDescription("Total number of eligible backers fetched from Open Collective"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backers fetched counter: %w", err)
	}

	mp.rolesGrantedCounter, err = mp.meter.Int64Counter(
		RolesGrantedTotal,
		metric.WithDescription("Total number of tier roles granted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create roles granted counter: %w", err)
	}

	mp.backersSkippedCounter, err = mp.meter.Int64Counter(
		BackersSkippedTotal,
		metric.WithDescription("Total number of backers skipped"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create backers skipped counter: %w", err)
	}

	mp.runsCounter, err = mp.meter.Int64Counter(
		RunsTotal,
		metric.WithDescription("Total number of sync runs by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create runs counter: %w", err)
	}

	return nil
}

// Shutdown flushes pending metrics and shuts down the provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordBackersFetched records the eligible backers returned by a fetch
func (mp *MetricsProvider) RecordBackersFetched(count int) {
	if !mp.isEnabled() {
		return
	}

	mp.backersFetchedCounter.Add(context.Background(), int64(count))
}

// RecordOutcome records a granted or skipped backer
func (mp *MetricsProvider) RecordOutcome(outcome entities.SyncOutcome) {
	if !mp.isEnabled() {
		return
	}

	if outcome.Kind == entities.OutcomeGranted {
		mp.rolesGrantedCounter.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String(LabelRole, outcome.RoleName),
			),
		)
		return
	}

	mp.backersSkippedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelReason, string(outcome.Reason)),
		),
	)
}

// RecordRun records a finished run
func (mp *MetricsProvider) RecordRun(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.runsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelResult, result),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}
