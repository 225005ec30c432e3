package notification

// Hints carries the hint dictionary from a Notify call with the D-Bus
// variant layer already unwrapped to plain Go values. Unknown keys are
// kept as-is; the typed accessors below tolerate the integer-width
// variations real clients send.
type Hints map[string]any

// Well-known hint keys from the notification spec.
const (
	HintUrgency   = "urgency"
	HintCategory  = "category"
	HintResident  = "resident"
	HintTransient = "transient"
)

// Urgency returns the urgency hint, or UrgencyNormal when absent or
// malformed. Clients send it as a byte per spec, but some use wider
// integer types.
func (h Hints) Urgency() Urgency {
	v, ok := h[HintUrgency]
	if !ok {
		return UrgencyNormal
	}
	n, ok := asInt(v)
	if !ok || n < 0 || n > int64(UrgencyCritical) {
		return UrgencyNormal
	}
	return Urgency(n)
}

// Category returns the category hint or "".
func (h Hints) Category() string {
	s, _ := h[HintCategory].(string)
	return s
}

// Resident reports the resident hint. Accepts bool or integer encodings.
func (h Hints) Resident() bool {
	return h.boolHint(HintResident)
}

// Transient reports the transient hint. Accepts bool or integer encodings.
func (h Hints) Transient() bool {
	return h.boolHint(HintTransient)
}

func (h Hints) boolHint(key string) bool {
	v, ok := h[key]
	if !ok {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if n, ok := asInt(v); ok {
		return n != 0
	}
	return false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case byte:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	}
	return 0, false
}
