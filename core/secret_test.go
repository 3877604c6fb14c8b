package core

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSecretString(t *testing.T) {
	secret := NewSecret("sk-abc123xyz")
	got := secret.String()
	want := "[REDACTED]"
	if got != want {
		t.Errorf("Secret.String() = %q, want %q", got, want)
	}
}

func TestSecretGoString(t *testing.T) {
	secret := NewSecret("sk-abc123xyz")
	got := secret.GoString()
	want := "core.Secret{[REDACTED]}"
	if got != want {
		t.Errorf("Secret.GoString() = %q, want %q", got, want)
	}
}

func TestSecretFormatVerbs(t *testing.T) {
	secret := NewSecret("sk-abc123xyz")

	tests := []struct {
		verb string
		want string
	}{
		{"%v", "[REDACTED]"},
		{"%s", "[REDACTED]"},
		{"%#v", "core.Secret{[REDACTED]}"},
	}

	for _, tt := range tests {
		t.Run(tt.verb, func(t *testing.T) {
			got := fmt.Sprintf(tt.verb, secret)
			if got != tt.want {
				t.Errorf("Sprintf(%q) = %q, want %q", tt.verb, got, tt.want)
			}
		})
	}
}

func TestSecretMarshalJSON(t *testing.T) {
	type payload struct {
		Key Secret `json:"key"`
	}
	data, err := json.Marshal(payload{Key: NewSecret("sk-abc123xyz")})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"key":"[REDACTED]"}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}
}

func TestSecretMarshalText(t *testing.T) {
	secret := NewSecret("sk-abc123xyz")
	got, err := secret.MarshalText()
	if err != nil {
		t.Fatalf("Secret.MarshalText() error = %v", err)
	}
	if string(got) != "[REDACTED]" {
		t.Errorf("Secret.MarshalText() = %s, want [REDACTED]", got)
	}
}

func TestSecretExpose(t *testing.T) {
	value := "sk-abc123xyz"
	secret := NewSecret(value)
	if got := secret.Expose(); got != value {
		t.Errorf("Secret.Expose() = %q, want %q", got, value)
	}
}

func TestSecretIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"empty string", "", true},
		{"non-empty string", "sk-abc123", false},
		{"whitespace only", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := NewSecret(tt.value)
			if got := secret.IsEmpty(); got != tt.want {
				t.Errorf("Secret.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
