package application

import (
	"github.com/hill399/linkedBtc/internal/core/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/hill399/linkedBtc/internal/core/application")

var (
	accountsRegistered, _ = meter.Int64Counter(
		"linkedbtc.accounts.registered",
		metric.WithDescription("accounts registered"),
	)
	requestsDispatched, _ = meter.Int64Counter(
		"linkedbtc.requests.dispatched",
		metric.WithDescription("requests stored and queued for a provider"),
	)
	requestsSent, _ = meter.Int64Counter(
		"linkedbtc.requests.sent",
		metric.WithDescription("requests accepted by a provider"),
	)
	verdictsApplied, _ = meter.Int64Counter(
		"linkedbtc.verdicts.applied",
		metric.WithDescription("provider verdicts matched to a pending request"),
	)
	verdictsIgnored, _ = meter.Int64Counter(
		"linkedbtc.verdicts.ignored",
		metric.WithDescription("stale, duplicate or mismatched provider verdicts"),
	)
	requestsExpired, _ = meter.Int64Counter(
		"linkedbtc.requests.expired",
		metric.WithDescription("pending requests removed by expiry"),
	)
	withdrawalsUnsettled, _ = meter.Int64Counter(
		"linkedbtc.withdrawals.unsettled",
		metric.WithDescription("withdrawals whose fan-out ended without a payout"),
	)
)

func purposeAttr(p domain.Purpose) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("purpose", p.String()))
}

func outcomeAttr(p domain.Purpose, ok bool) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("purpose", p.String()), attribute.Bool("success", ok),
	)
}
