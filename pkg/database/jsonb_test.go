package database

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coveragePayload struct {
	RowCount int `json:"row_count"`
}

func TestJSONB_RoundTrip(t *testing.T) {
	in := JSONB[coveragePayload]{Data: coveragePayload{RowCount: 7}}

	val, err := in.Value()
	require.NoError(t, err)

	var out JSONB[coveragePayload]
	require.NoError(t, out.Scan(val))
	assert.Equal(t, coveragePayload{RowCount: 7}, out.GetValue())
}

func TestJSONB_ScanRawMessage(t *testing.T) {
	var out JSONB[json.RawMessage]
	require.NoError(t, out.Scan([]byte(`{"row_count":7}`)))
	assert.JSONEq(t, `{"row_count":7}`, string(out.GetValue()))
}

func TestJSONB_ScanRejectsNonBytes(t *testing.T) {
	var out JSONB[coveragePayload]
	assert.Error(t, out.Scan("not bytes"))
}
