package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gofirehose/pkg/materialize"
	"github.com/3leaps/gofirehose/pkg/output"
	"github.com/3leaps/gofirehose/pkg/payload"
)

func TestAppError_Message(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"message and cause", WrapInternal(context.Background(), cause, "write failed"), "write failed: disk full"},
		{"message only", NewExternalServiceError("upstream down"), "upstream down"},
		{"cause only", &AppError{Err: cause}, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapKeepsCauseAndCorrelation(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-42")
	err := WrapExternalService(ctx, context.DeadlineExceeded, "put record")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, CategoryExternalService, CategoryOf(err))

	var ae *AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "req-42", ae.CorrelationID)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryInternal, CategoryOf(errors.New("plain")))
	assert.Equal(t, CategoryValidation, CategoryOf(NewValidationError("bad")))
	assert.Equal(t, CategoryConfig, CategoryOf(fmt.Errorf("outer: %w", WrapConfig(context.Background(), errors.New("x"), "load"))))
	assert.Equal(t, CategoryReadOnly, CategoryOf(NewReadOnlyError("stream delete")))
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly(NewReadOnlyError("stream delete")))
	assert.False(t, IsReadOnly(NewValidationError("bad")))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"readonly", NewReadOnlyError("tag add"), CodeReadOnly},
		{"too large", &payload.TooLargeError{Source: "body", Size: 10, Limit: 5}, CodePayloadTooLarge},
		{"materialize config", &materialize.ConfigError{Name: "DeliveryStreamName", Reason: "is required"}, output.ErrCodeInvalidConfig},
		{"validation", NewValidationError("bad"), CodeBadRequest},
		{"config category", WrapConfig(context.Background(), errors.New("x"), "load"), output.ErrCodeInvalidConfig},
		{"external category", NewExternalServiceError("down"), output.ErrCodeProviderUnavailable},
		{"timeout", context.DeadlineExceeded, output.ErrCodeTimeout},
		{"plain", errors.New("x"), output.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{output.ErrCodeInvalidConfig, http.StatusBadRequest},
		{output.ErrCodeNotFound, http.StatusNotFound},
		{output.ErrCodeResourceInUse, http.StatusConflict},
		{output.ErrCodeThrottled, http.StatusTooManyRequests},
		{output.ErrCodeAccessDenied, http.StatusForbidden},
		{CodeReadOnly, http.StatusForbidden},
		{output.ErrCodeProviderUnavailable, http.StatusBadGateway},
		{output.ErrCodeTimeout, http.StatusGatewayTimeout},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForCode(tt.code))
		})
	}
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/streams/s/records", nil)
	req = req.WithContext(WithCorrelationID(req.Context(), "req-7"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, &materialize.ConfigError{Name: "Record.Data", Reason: "is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, output.ErrCodeInvalidConfig, body.Error.Code)
	assert.Equal(t, "req-7", body.Error.CorrelationID)
	assert.Equal(t, "/v1/streams/s/records", body.Error.Path)
	assert.NotEmpty(t, body.Error.Timestamp)
	assert.Contains(t, body.Error.Message, "Record.Data")
}
