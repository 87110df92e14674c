package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/3leaps/gofirehose/internal/errors"
	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/pkg/firehose"
	m "github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/payload"
)

// maxBatchBody bounds a batch request body. base64 lines inflate by 4/3.
const maxBatchBody = 2 * payload.MaxBatchBytes

// RecordsHandler relays record writes to a delivery stream. Each request is one
// invocation.
type RecordsHandler struct {
	client *firehose.Client
}

// NewRecordsHandler returns a handler writing through client.
func NewRecordsHandler(client *firehose.Client) *RecordsHandler {
	return &RecordsHandler{client: client}
}

// PutRecord serves POST /v1/streams/{name}/records. The raw body is the record.
func (h *RecordsHandler) PutRecord(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	body, err := payload.Open(ctx, payload.Reader("request body", r.Body))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	defer func() { _ = body.Close() }()

	data, err := payload.ReadAll(ctx, body)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	sel := r.URL.Query().Get("select")
	out, err := h.client.PutRecord(ctx, firehose.PutRecordParams{
		Name: m.Some(name),
		Data: m.Some(data),
	}, sel)
	h.finish(w, r, "PutRecord", name, orDefault(sel, firehose.DefaultPutRecordSelect), out, err)
}

// PutBatch serves POST /v1/streams/{name}/batch. The body is newline-delimited
// records, decoded per the decode query parameter (raw, json, or base64).
// newline=true appends a newline to every record.
func (h *RecordsHandler) PutBatch(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w, r) {
		return
	}
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	q := r.URL.Query()

	dec, err := payload.ParseDecoding(q.Get("decode"))
	if err != nil {
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	var delim []byte
	if v := q.Get("newline"); v != "" {
		nl, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, r, apperrors.NewValidationError(fmt.Sprintf("invalid newline value %q", v)))
			return
		}
		if nl {
			delim = []byte("\n")
		}
	}

	records, err := payload.ReadLines(ctx, http.MaxBytesReader(w, r.Body, maxBatchBody), payload.LineOptions{
		Decoding:  dec,
		Delimiter: delim,
		Label:     "request body",
	})
	if err != nil {
		var mbe *http.MaxBytesError
		var le *payload.LineError
		switch {
		case errors.As(err, &mbe):
			err = &payload.TooLargeError{Source: "request body", Size: -1, Limit: mbe.Limit}
		case errors.As(err, &le) && !payload.IsTooLarge(err):
			err = apperrors.NewValidationError(err.Error())
		}
		respondWithError(w, r, err)
		return
	}

	sel := q.Get("select")
	out, err := h.client.PutRecordBatch(ctx, firehose.PutRecordBatchParams{
		Name:    m.Some(name),
		Records: m.Some(records),
	}, sel)
	h.finish(w, r, "PutRecordBatch", name, orDefault(sel, firehose.DefaultPutBatchSelect), out, err)
}

func (h *RecordsHandler) ready(w http.ResponseWriter, r *http.Request) bool {
	if h.client != nil {
		return true
	}
	respondWithError(w, r, apperrors.NewExternalServiceError("no delivery stream client configured"))
	return false
}

func (h *RecordsHandler) finish(w http.ResponseWriter, r *http.Request, op, stream, sel string, out m.Outcome[any], cfgErr error) {
	if cfgErr != nil {
		respondWithError(w, r, cfgErr)
		return
	}

	value, err := out.Result()
	if err != nil {
		observability.CLILogger.Warn("Relay invocation failed",
			zap.String("operation", op),
			zap.String("stream", stream),
			zap.String("request_id", apperrors.CorrelationID(r.Context())),
			zap.Error(err),
		)
		respondWithError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, output.ResultRecord{
		Operation: op,
		Stream:    stream,
		Select:    sel,
		Value:     value,
	})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
