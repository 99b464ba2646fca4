package otel

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

// RecordError marks span as failed. Errors carrying a kind also get the kind
// and the user facing message as attributes so traces can be filtered by them.
func RecordError(err error, span trace.Span) {
	if err == nil {
		return
	}
	var e *inErrors.Error
	if errors.As(err, &e) && e.Kind != nil {
		span.SetAttributes(
			attribute.String("error.kind", e.Kind.Error()),
			attribute.String("error.message", e.Message),
		)
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
