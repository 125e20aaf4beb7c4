// Package audittrail holds the pure parts of audit recording: snapshot redaction,
// change detection and the hand-off of "before" snapshots from handlers to the audit middleware.
package audittrail

import (
	"encoding/json"
	"strings"

	"github.com/labstack/echo/v4"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionLogin  Action = "LOGIN"
	ActionLogout Action = "LOGOUT"
	ActionView   Action = "VIEW"
	ActionExport Action = "EXPORT"
	ActionImport Action = "IMPORT"
)

var Actions = []Action{
	ActionCreate, ActionUpdate, ActionDelete, ActionLogin,
	ActionLogout, ActionView, ActionExport, ActionImport,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

const RedactedMarker = "***REDACTED***"

var sensitiveKeys = map[string]struct{}{
	"password":   {},
	"token":      {},
	"secret":     {},
	"apikey":     {},
	"privatekey": {},
}

// Change is one entry of the UPDATE diff.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type Snapshot = map[string]any

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// Redact returns a deep copy of s with every sensitive key, at any depth, replaced by RedactedMarker.
func Redact(s Snapshot) Snapshot {
	if s == nil {
		return nil
	}
	return redactValue(s).(Snapshot)
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isSensitive(k) {
				out[k] = RedactedMarker
				continue
			}
			out[k] = redactValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = redactValue(inner)
		}
		return out
	default:
		return v
	}
}

// Changes diffs two snapshots over the union of their keys. It redacts both sides first
// and returns nil when either side is nil or nothing differs.
func Changes(before, after Snapshot) map[string]Change {
	if before == nil || after == nil {
		return nil
	}
	before, after = Redact(before), Redact(after)

	changes := make(map[string]Change)
	for key := range union(before, after) {
		oldValue, newValue := before[key], after[key]
		if !sameJSON(oldValue, newValue) {
			changes[key] = Change{Old: oldValue, New: newValue}
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func union(a, b Snapshot) map[string]struct{} {
	keys := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}
	return keys
}

func sameJSON(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

// ToSnapshot converts any JSON-encodable value into a Snapshot.
// Values that do not encode to a JSON object yield nil.
func ToSnapshot(v any) Snapshot {
	if v == nil {
		return nil
	}
	if s, ok := v.(Snapshot); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

const beforeKey = "audittrail.before"

// SetBefore stores the pre-change state of the entity touched by the current request.
func SetBefore(c echo.Context, v any) {
	c.Set(beforeKey, ToSnapshot(v))
}

func GetBefore(c echo.Context) Snapshot {
	s, _ := c.Get(beforeKey).(Snapshot)
	return s
}
