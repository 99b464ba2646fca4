package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Envelope is the body every endpoint answers with.
type Envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Client calls JSON endpoints of a remote service with a fixed timeout and
// turns every failure into an *errors.Error.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Do sends body as JSON and decodes the data field of the response into out.
// An empty bearer sends no Authorization header.
func (cl *Client) Do(
	c context.Context,
	method string,
	path string,
	bearer string,
	body interface{},
	out interface{},
) error {
	c, span := otel.Tracer.Start(c, "Client Do")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Do").
		Str(log.KeyRequestMethod, method).
		Str(log.KeyRequestURL, cl.baseURL+path).
		Str(log.KeyProcess, "building request").
		Logger()

	logger.Trace().Msg("building request")
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return inErrors.Unknown(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(c, method, cl.baseURL+path, reader)
	if err != nil {
		err = fmt.Errorf("failed building request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.Unknown(err)
	}
	req.Header.Set(HeaderContentType, HeaderValueJson)
	if bearer != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+bearer)
	}
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	logger.Trace().Msg("built request")

	logger = logger.With().Str(log.KeyProcess, "sending request").Logger()
	logger.Debug().Msg("sending request")
	resp, err := cl.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		if isTimeout(err) {
			return inErrors.Timeout(err)
		}
		return inErrors.Unknown(err)
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyResponseStatus, resp.StatusCode).Logger()
	logger.Debug().Msg("sent request")

	logger = logger.With().Str(log.KeyProcess, "decoding response").Logger()
	logger.Trace().Msg("decoding response")
	envelope := Envelope{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)
	if resp.StatusCode >= http.StatusBadRequest {
		err = responseError(resp.StatusCode, envelope.Message, decodeErr)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if decodeErr != nil {
		if isTimeout(decodeErr) {
			return inErrors.Timeout(decodeErr)
		}
		err = fmt.Errorf("failed decoding response with error=%w", decodeErr)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.Unknown(err)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err = json.Unmarshal(envelope.Data, out); err != nil {
			err = fmt.Errorf("failed decoding response data with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return inErrors.Unknown(err)
		}
	}
	logger.Trace().Msg("decoded response")

	return nil
}

func responseError(statusCode int, message string, decodeErr error) error {
	cause := fmt.Errorf("remote answered with statusCode=%d", statusCode)
	if decodeErr != nil || message == "" {
		return inErrors.Unknown(errors.Join(cause, decodeErr))
	}
	switch statusCode {
	case http.StatusUnauthorized:
		return inErrors.New(inErrors.ErrAuthRequired, message, cause)
	case http.StatusForbidden:
		return inErrors.Server(message, errors.Join(cause, inErrors.ErrForbidden))
	case http.StatusNotFound:
		return inErrors.Server(message, errors.Join(cause, inErrors.ErrNotFound))
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return inErrors.Timeout(cause)
	default:
		return inErrors.Server(message, cause)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
