package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	oldState := map[string]any{"total": 20.0, "status": "Partial Payment", "note": "x"}
	newState := map[string]any{"total": 30.0, "status": "Partial Payment", "amountPaid": 15.0}

	changes := Diff(oldState, newState)

	assert.Len(t, changes, 3)
	assert.Equal(t, map[string]any{"old": 20.0, "new": 30.0}, changes["total"])
	assert.Equal(t, map[string]any{"old": nil, "new": 15.0}, changes["amountPaid"])
	assert.Equal(t, map[string]any{"old": "x", "new": nil}, changes["note"])
	assert.NotContains(t, changes, "status")
}

func TestDiff_NestedItems(t *testing.T) {
	before := map[string]any{"items": []any{map[string]any{"quantity": 2.0}}}
	after := map[string]any{"items": []any{map[string]any{"quantity": 3.0}}}
	assert.Contains(t, Diff(before, after), "items")
	assert.Empty(t, Diff(before, before))
}

func TestToMap_NilPointer(t *testing.T) {
	type rec struct{ A int }
	var p *rec
	m, err := toMap(p)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestAuditCompression_RoundTrip(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := AuditEntry{Changes: json.RawMessage(`{"total":{"old":1,"new":2}}`)}
	svc.compress(&small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)
	assert.Nil(t, small.ChangesCompressed)

	payload := `{"items":"` + strings.Repeat("Remote_xhorse ", 1000) + `"}`
	large := AuditEntry{Changes: json.RawMessage(payload)}
	svc.compress(&large)
	require.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, svc.decompress(&large))
	assert.JSONEq(t, payload, string(large.Changes))
}
