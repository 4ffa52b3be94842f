package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans.
const TracerName = "storefront-backend"

// Span attribute keys used by service spans.
const (
	SpanAttrOrderID       = "order.id"
	SpanAttrOrderNumber   = "order.number"
	SpanAttrPaymentMethod = "payment.method"
	SpanAttrCurrency      = "currency"
	SpanAttrItemCount     = "cart.item_count"
	SpanAttrStripeEvent   = "stripe.event_type"
	SpanAttrJob           = "job.name"
)

// StartSpan starts an internal span named "{service}.{method}", e.g.
// "checkout.place_order". The caller ends it.
func StartSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx,
		fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks span as failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the active trace ID or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
