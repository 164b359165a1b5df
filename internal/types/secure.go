package types

import "log/slog"

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString wraps the two secrets this service carries, the JWT signing
// key and the database URL, so they cannot leak through fmt, JSON, or slog
// output. All three surfaces render the redacted placeholder; the raw value
// is only reachable through Unmask or Bytes at the point of use.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// LogValue redacts the secret in structured log output. Covers the case of
// an slog attribute built from the secret directly rather than via String().
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// Unmask returns the raw plaintext value, for opening the database
// connection.
func (s SecretString) Unmask() string {
	return string(s)
}

// Bytes returns the raw value as a byte slice, for use as an HMAC key.
func (s SecretString) Bytes() []byte {
	return []byte(s)
}
