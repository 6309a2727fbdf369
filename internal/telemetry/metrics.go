package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/taskforge/taskforge"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Authentication metrics
	LoginAttemptsTotal      metric.Int64Counter
	LoginFailuresTotal      metric.Int64Counter
	TokensIssuedTotal       metric.Int64Counter
	TokenValidationFailures metric.Int64Counter

	// Authorization metrics
	AccessDeniedTotal         metric.Int64Counter
	GuardViolationsTotal      metric.Int64Counter
	DanglingTokenRejectsTotal metric.Int64Counter

	// Account metrics
	AccountsCreatedTotal metric.Int64Counter
	RoleChangesTotal     metric.Int64Counter
	AccountsDeletedTotal metric.Int64Counter

	// Task metrics
	TasksCreatedTotal   metric.Int64Counter
	TasksConcludedTotal metric.Int64Counter
	TasksDeletedTotal   metric.Int64Counter

	// Request metrics
	RequestDuration metric.Float64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.LoginAttemptsTotal, _ = meter.Int64Counter(
		"taskforge.auth.login.attempts.total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"taskforge.auth.login.failures.total",
		metric.WithDescription("Total number of failed login attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.TokensIssuedTotal, _ = meter.Int64Counter(
		"taskforge.auth.tokens.issued.total",
		metric.WithDescription("Total number of bearer tokens issued"),
		metric.WithUnit("{token}"),
	)

	m.TokenValidationFailures, _ = meter.Int64Counter(
		"taskforge.auth.tokens.validation_failures.total",
		metric.WithDescription("Total number of bearer tokens rejected during validation"),
		metric.WithUnit("{token}"),
	)

	m.AccessDeniedTotal, _ = meter.Int64Counter(
		"taskforge.authz.access_denied.total",
		metric.WithDescription("Total number of requests rejected by the authorization policy"),
		metric.WithUnit("{request}"),
	)

	m.GuardViolationsTotal, _ = meter.Int64Counter(
		"taskforge.authz.guard_violations.total",
		metric.WithDescription("Total number of role invariant violations blocked"),
		metric.WithUnit("{violation}"),
	)

	m.DanglingTokenRejectsTotal, _ = meter.Int64Counter(
		"taskforge.auth.dangling_tokens.total",
		metric.WithDescription("Total number of valid tokens rejected because the account no longer exists"),
		metric.WithUnit("{token}"),
	)

	m.AccountsCreatedTotal, _ = meter.Int64Counter(
		"taskforge.accounts.created.total",
		metric.WithDescription("Total number of accounts created"),
		metric.WithUnit("{account}"),
	)

	m.RoleChangesTotal, _ = meter.Int64Counter(
		"taskforge.accounts.role_changes.total",
		metric.WithDescription("Total number of account role changes"),
		metric.WithUnit("{change}"),
	)

	m.AccountsDeletedTotal, _ = meter.Int64Counter(
		"taskforge.accounts.deleted.total",
		metric.WithDescription("Total number of accounts deleted"),
		metric.WithUnit("{account}"),
	)

	m.TasksCreatedTotal, _ = meter.Int64Counter(
		"taskforge.tasks.created.total",
		metric.WithDescription("Total number of tasks created"),
		metric.WithUnit("{task}"),
	)

	m.TasksConcludedTotal, _ = meter.Int64Counter(
		"taskforge.tasks.concluded.total",
		metric.WithDescription("Total number of tasks marked completed"),
		metric.WithUnit("{task}"),
	)

	m.TasksDeletedTotal, _ = meter.Int64Counter(
		"taskforge.tasks.deleted.total",
		metric.WithDescription("Total number of tasks deleted"),
		metric.WithUnit("{task}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"taskforge.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	return m
}
