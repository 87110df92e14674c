package materialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	arn := "arn:aws:firehose:us-east-1:123456789012:deliverystream/s"
	res := &result{ARN: &arn, Status: "ACTIVE", Nested: &struct{ Count int }{Count: 7}}
	echo := map[string]any{"DeliveryStreamName": "s"}

	tests := []struct {
		name string
		expr string
		want any
	}{
		{name: "empty is whole result", expr: "", want: res},
		{name: "star is whole result", expr: "*", want: res},
		{name: "field", expr: "Status", want: "ACTIVE"},
		{name: "pointer field", expr: "ARN", want: &arn},
		{name: "case-insensitive field", expr: "status", want: "ACTIVE"},
		{name: "nested field", expr: "Nested.Count", want: 7},
		{name: "echo input", expr: "^DeliveryStreamName", want: "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := Select[*result](tt.expr, echo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, project(res))
		})
	}
}

func TestSelect_NilIntermediate(t *testing.T) {
	project, err := Select[*result]("Nested.Count", nil)
	require.NoError(t, err)
	assert.Nil(t, project(&result{}))
	assert.Nil(t, project(nil))
}

func TestSelect_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr string
	}{
		{name: "unknown field", expr: "Missing", wantErr: `has no field "Missing"`},
		{name: "unknown nested field", expr: "Nested.Missing", wantErr: `has no field "Missing"`},
		{name: "path through scalar", expr: "Status.Length", wantErr: "has no fields"},
		{name: "unknown echo", expr: "^Nope", wantErr: `unknown input parameter "Nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, err := Select[*result](tt.expr, map[string]any{"DeliveryStreamName": "s"})
			require.Error(t, err)
			assert.Nil(t, project)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProjectorHelpers(t *testing.T) {
	r := &result{Status: "x"}
	assert.Same(t, r, Identity[*result]()(r))
	assert.Equal(t, "echoed", Echo[*result]("echoed")(r))
}
