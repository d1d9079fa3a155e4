package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"calc-history/internal/handlers"
	"calc-history/internal/history"
	"calc-history/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

const successMessage = "Success"

// maxRequestBytes caps the POST /calculate body.
const maxRequestBytes = 1 << 20

// Handler serves the calculation and history endpoints against an injected
// history store.
type Handler struct {
	store history.Store
}

func NewHandler(store history.Store) *Handler {
	return &Handler{store: store}
}

// Calculate handles POST /calculate: validate, compute, append to history,
// respond. Nothing is stored unless the computation succeeds.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	const opName = "calculate"

	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	// --- 1. Custom child span ---
	ctx, span := tracer.Start(ctx, "calculator.calculate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	// --- 2. Decode and validate ---
	req, err := decodeRequest(w, r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	op, err := validate(req)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, err.Error(), err, http.StatusBadRequest, w)
		return
	}

	span.SetAttributes(
		attribute.String("calculator.operation", string(op)),
		attribute.Int("calculator.operands", len(req.Numbers)),
	)

	// --- 3. Compute (timed for histogram) ---
	start := time.Now()
	result, err := Compute(op, req.Numbers)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		status := http.StatusBadRequest
		if !IsClientError(err) {
			status = http.StatusInternalServerError
		}
		observability.RecordError(ctx, span, logger, errorCounter, string(op), err.Error(), err, status, w)
		return
	}

	// --- 4. Persist ---
	rec, err := h.store.Append(ctx, history.Record{
		Inputs:    req.Numbers,
		Operation: string(op),
		Result:    result,
	})
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, string(op), "failed to save calculation", err, http.StatusInternalServerError, w)
		return
	}

	// --- 5. Metrics and span event ---
	attrs := metric.WithAttributes(attribute.String("operation", string(op)))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	resultGauge.Record(ctx, result, attrs)
	inputsSize.Record(ctx, int64(len(req.Numbers)), attrs)

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.Float64("result", result),
		attribute.Float64("duration_ms", elapsed),
		attribute.Int64("history.record.id", rec.ID),
	))
	span.SetAttributes(attribute.Float64("calculator.result", result))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculation completed",
		zap.String("operation", string(op)),
		zap.Int("operands", len(req.Numbers)),
		zap.Float64("result", result),
		zap.Int64("record_id", rec.ID),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	if err := handlers.WriteJSON(w, http.StatusOK, CalculateResponse{
		Result:  result,
		Message: successMessage,
	}); err != nil {
		logger.Error("writing calculate response failed", zap.Error(err), zap.String("request_id", requestID))
	}
}

// History handles GET /history and returns every stored calculation, newest
// first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const opName = "history"

	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.history",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	records, err := h.store.ListAll(ctx)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "failed to load history", err, http.StatusInternalServerError, w)
		return
	}

	span.SetAttributes(attribute.Int("history.records", len(records)))
	span.SetStatus(codes.Ok, "")

	logger.Debug("history listed",
		zap.Int("records", len(records)),
		zap.String("request_id", requestID),
	)

	if err := handlers.WriteJSON(w, http.StatusOK, HistoryResponse(records)); err != nil {
		logger.Error("writing history response failed", zap.Error(err), zap.String("request_id", requestID))
	}
}

// decodeRequest reads exactly one JSON object from a size-limited body.
// Anything after the object other than whitespace is rejected.
func decodeRequest(w http.ResponseWriter, r *http.Request) (CalculateRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))

	var req CalculateRequest
	if err := dec.Decode(&req); err != nil {
		return CalculateRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON object")
		}
		return CalculateRequest{}, fmt.Errorf("trailing data: %w", err)
	}
	return req, nil
}

// validate applies the request preconditions. Empty input is reported
// before anything else, whatever the operation.
func validate(req CalculateRequest) (Operation, error) {
	if len(req.Numbers) == 0 {
		return "", ErrEmptyInput
	}

	op, err := ParseOperation(req.Operation)
	if err != nil {
		return "", err
	}
	return op, nil
}

// IsClientError reports whether err is a validation failure that should be
// answered with 400 rather than 500.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrEmptyInput,
		ErrInsufficientOperands,
		ErrDivisionByZero,
		ErrUnknownOperation,
		ErrInvalidNumber,
		ErrNonFiniteResult,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
