package audittrail

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactReplacesSensitiveKeysAtAnyDepth(t *testing.T) {
	in := Snapshot{
		"username": "budi",
		"Password": "hunter2",
		"nested": map[string]any{
			"apiKey": "k-123",
			"items":  []any{map[string]any{"privateKey": "pk", "name": "a"}},
		},
		"token": "jwt",
	}

	out := Redact(in)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	for _, secret := range []string{"hunter2", "k-123", "\"pk\"", "jwt"} {
		assert.NotContains(t, string(raw), secret)
	}
	assert.Equal(t, "budi", out["username"])
	assert.Equal(t, RedactedMarker, out["Password"])
	assert.Equal(t, "hunter2", in["Password"], "input must not be mutated")
}

func TestChangesStatusOnly(t *testing.T) {
	before := Snapshot{"status": "pending", "amount": float64(100)}
	after := Snapshot{"status": "approved", "amount": float64(100)}

	want := map[string]Change{"status": {Old: "pending", New: "approved"}}
	if diff := cmp.Diff(want, Changes(before, after)); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestChangesNilWhenEqualAfterRedaction(t *testing.T) {
	before := Snapshot{"name": "x", "password": "old"}
	after := Snapshot{"name": "x", "password": "new"}

	assert.Nil(t, Changes(before, after))
}

func TestChangesNeverLeaksSecrets(t *testing.T) {
	before := Snapshot{"secret": "s1", "name": "a"}
	after := Snapshot{"secret": "s2", "name": "b", "token": "t"}

	changes := Changes(before, after)
	raw, err := json.Marshal(changes)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s1")
	assert.NotContains(t, string(raw), "s2")
	assert.NotContains(t, string(raw), "\"t\"")
	assert.Contains(t, changes, "name")
	assert.Contains(t, changes, "token", "a key present on one side only is a change")
}

func TestChangesUnionOfKeys(t *testing.T) {
	before := Snapshot{"a": float64(1)}
	after := Snapshot{"b": float64(2)}

	want := map[string]Change{
		"a": {Old: float64(1), New: nil},
		"b": {Old: nil, New: float64(2)},
	}
	if diff := cmp.Diff(want, Changes(before, after)); diff != "" {
		t.Errorf("Changes() mismatch (-want +got):\n%s", diff)
	}
}

func TestChangesNilSide(t *testing.T) {
	assert.Nil(t, Changes(nil, Snapshot{"a": 1}))
	assert.Nil(t, Changes(Snapshot{"a": 1}, nil))
}

func TestToSnapshotFromStruct(t *testing.T) {
	type row struct {
		ID     string `json:"id"`
		Amount int    `json:"amount"`
	}
	got := ToSnapshot(row{ID: "SUB001", Amount: 3})
	assert.Equal(t, Snapshot{"id": "SUB001", "amount": float64(3)}, got)
	assert.Nil(t, ToSnapshot([]int{1, 2}))
}

func TestSetBeforeRoundTripsThroughEchoContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPut, "/", strings.NewReader("")), httptest.NewRecorder())

	assert.Nil(t, GetBefore(c))
	SetBefore(c, map[string]any{"status": "pending"})
	assert.Equal(t, Snapshot{"status": "pending"}, GetBefore(c))
}

func TestActionValid(t *testing.T) {
	assert.True(t, ActionExport.Valid())
	assert.False(t, Action("PURGE").Valid())
}
