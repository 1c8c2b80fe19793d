package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	headers := amqp.Table{}
	_, span := StartPublishSpan(context.Background(), "geeta.events", "onboarding.completed", headers)
	EndSpan(span, nil)

	if HeaderCarrier(headers).Get("traceparent") == "" {
		t.Fatal("traceparent header not injected")
	}

	_, consumeSpan := StartConsumeSpan(context.Background(), "onboarding.completed", amqp.Delivery{Headers: headers})
	defer EndSpan(consumeSpan, nil)

	want := span.SpanContext().TraceID()
	if got := consumeSpan.SpanContext().TraceID(); got != want {
		t.Fatalf("trace id = %s, want %s", got, want)
	}
}
