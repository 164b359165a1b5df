package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

const testSecret = "super-secret-signing-key-12345"

func TestSecretString_String(t *testing.T) {
	s := SecretString(testSecret)

	result := s.String()

	if result != redactedPlaceholder {
		t.Errorf("String() = %q, want %q", result, redactedPlaceholder)
	}
	if strings.Contains(result, testSecret) {
		t.Errorf("String() leaked the raw secret value")
	}
}

func TestSecretString_Sprintf(t *testing.T) {
	s := SecretString(testSecret)

	// %s uses the String() method via the fmt.Stringer interface.
	result := fmt.Sprintf("key=%s", s)

	if strings.Contains(result, testSecret) {
		t.Errorf("fmt.Sprintf(%%s) leaked the raw secret: %s", result)
	}
	expected := "key=" + redactedPlaceholder
	if result != expected {
		t.Errorf("fmt.Sprintf(%%s) = %q, want %q", result, expected)
	}
}

func TestSecretString_MarshalJSON(t *testing.T) {
	type payload struct {
		Secret SecretString `json:"secret"`
		Name   string       `json:"name"`
	}

	data, err := json.Marshal(payload{Secret: SecretString(testSecret), Name: "test"})
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}

	if strings.Contains(string(data), testSecret) {
		t.Errorf("MarshalJSON leaked the raw secret: %s", data)
	}
	if !strings.Contains(string(data), redactedPlaceholder) {
		t.Errorf("MarshalJSON output missing redacted placeholder: %s", data)
	}
}

func TestSecretString_LogValue(t *testing.T) {
	s := SecretString(testSecret)

	v := s.LogValue()

	if v.String() != redactedPlaceholder {
		t.Errorf("LogValue() = %q, want %q", v.String(), redactedPlaceholder)
	}
}

func TestSecretString_Unmask(t *testing.T) {
	s := SecretString(testSecret)

	if s.Unmask() != testSecret {
		t.Errorf("Unmask() = %q, want %q", s.Unmask(), testSecret)
	}
	if string(s.Bytes()) != testSecret {
		t.Errorf("Bytes() = %q, want %q", s.Bytes(), testSecret)
	}
}
