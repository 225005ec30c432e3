package notification

import "testing"

func TestHintsUrgency(t *testing.T) {
	tests := []struct {
		name  string
		hints Hints
		want  Urgency
	}{
		{"absent", Hints{}, UrgencyNormal},
		{"byte per spec", Hints{HintUrgency: byte(2)}, UrgencyCritical},
		{"int32 client", Hints{HintUrgency: int32(0)}, UrgencyLow},
		{"uint32 client", Hints{HintUrgency: uint32(1)}, UrgencyNormal},
		{"out of range", Hints{HintUrgency: byte(7)}, UrgencyNormal},
		{"negative", Hints{HintUrgency: int32(-1)}, UrgencyNormal},
		{"wrong type", Hints{HintUrgency: "critical"}, UrgencyNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hints.Urgency(); got != tt.want {
				t.Errorf("Urgency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHintsBoolEncodings(t *testing.T) {
	tests := []struct {
		name  string
		hints Hints
		want  bool
	}{
		{"absent", Hints{}, false},
		{"bool true", Hints{HintResident: true}, true},
		{"bool false", Hints{HintResident: false}, false},
		{"int one", Hints{HintResident: int32(1)}, true},
		{"int zero", Hints{HintResident: int32(0)}, false},
		{"byte one", Hints{HintResident: byte(1)}, true},
		{"wrong type", Hints{HintResident: "yes"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hints.Resident(); got != tt.want {
				t.Errorf("Resident() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHintsCategory(t *testing.T) {
	h := Hints{HintCategory: "email.arrived"}
	if got := h.Category(); got != "email.arrived" {
		t.Errorf("Category() = %q", got)
	}
	if got := (Hints{}).Category(); got != "" {
		t.Errorf("Category() on empty hints = %q, want empty", got)
	}
	if got := (Hints{HintCategory: 3}).Category(); got != "" {
		t.Errorf("Category() with wrong type = %q, want empty", got)
	}
}

func TestHintsUnknownKeysPreserved(t *testing.T) {
	h := Hints{"x-canonical-private-synchronous": "volume"}
	if _, ok := h["x-canonical-private-synchronous"]; !ok {
		t.Error("unknown hint dropped")
	}
}
