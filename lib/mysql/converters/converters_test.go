package converters

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRole_Validate(t *testing.T) {
	assert.NoError(t, Role("").Validate())
	assert.NoError(t, RoleUUID.Validate())
	assert.NoError(t, RoleJSON.Validate())
	assert.ErrorContains(t, Role("guid").Validate(), `unsupported column role: "guid"`)
}

func TestValueConverterForRole(t *testing.T) {
	{
		// Invalid
		_, err := ValueConverterForRole("foo")
		assert.ErrorContains(t, err, `unable to get value converter for role "foo"`)
	}
	{
		// Default
		converter, err := ValueConverterForRole("")
		assert.NoError(t, err)
		assert.Equal(t, Passthrough{}, converter)
	}
	{
		converter, err := ValueConverterForRole(RoleUUID)
		assert.NoError(t, err)
		assert.Equal(t, UUIDConverter{}, converter)
	}
	{
		converter, err := ValueConverterForRole(RoleString)
		assert.NoError(t, err)
		assert.Equal(t, StringConverter{}, converter)
	}
	{
		converter, err := ValueConverterForRole(RoleJSON)
		assert.NoError(t, err)
		assert.Equal(t, JSONConverter{}, converter)
	}
}

func TestPassthrough_Convert(t *testing.T) {
	for _, value := range []any{nil, int32(5), "hello", []byte{0x01}} {
		out, err := Passthrough{}.Convert(value)
		assert.NoError(t, err)
		assert.Equal(t, value, out)
	}
}

func TestUUIDConverter_Convert(t *testing.T) {
	id := uuid.MustParse("8a3a4a1c-8c9b-4f4e-9f33-2b1f6b2c7d10")
	{
		// []byte
		value, err := UUIDConverter{}.Convert(id[:])
		assert.NoError(t, err)
		assert.Equal(t, id, value)
	}
	{
		// string, the replication decoder hands BINARY(16) back as a string
		value, err := UUIDConverter{}.Convert(string(id[:]))
		assert.NoError(t, err)
		assert.Equal(t, id, value)
	}
	{
		// Too short
		_, err := UUIDConverter{}.Convert([]byte{0x01, 0x02})
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
		assert.ErrorContains(t, err, "expected 16 bytes, got 2")
	}
	{
		// Textual form is not accepted
		_, err := UUIDConverter{}.Convert(id.String())
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
	}
	{
		// Wrong type
		_, err := UUIDConverter{}.Convert(int64(1))
		assert.ErrorIs(t, err, ErrMalformedIdentifier)
		assert.ErrorContains(t, err, "expected []byte or string got int64 with value: 1")
	}
}

func TestUUIDConverter_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "input")
		value, err := UUIDConverter{}.Convert(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		id := value.(uuid.UUID)
		encoded, err := id.MarshalBinary()
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}
		if string(encoded) != string(input) {
			t.Fatalf("round trip mismatch: %x != %x", encoded, input)
		}
	})
}

func TestUUIDConverter_WrongLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOfN(rapid.Byte(), 0, 64).Filter(func(b []byte) bool { return len(b) != 16 }).Draw(t, "input")
		_, err := UUIDConverter{}.Convert(input)
		if err == nil {
			t.Fatalf("expected an error for %d bytes", len(input))
		}
	})
}

func TestStringConverter_Convert(t *testing.T) {
	{
		value, err := StringConverter{}.Convert([]byte("hello"))
		assert.NoError(t, err)
		assert.Equal(t, "hello", value)
	}
	{
		value, err := StringConverter{}.Convert("hello")
		assert.NoError(t, err)
		assert.Equal(t, "hello", value)
	}
	{
		_, err := StringConverter{}.Convert(1.5)
		assert.ErrorContains(t, err, "expected []byte or string got float64 with value: 1.5")
	}
}

func TestJSONConverter_Convert(t *testing.T) {
	{
		value, err := JSONConverter{}.Convert([]byte(`{"foo":"bar","n":1}`))
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "bar", "n": float64(1)}, value)
	}
	{
		_, err := JSONConverter{}.Convert("{not json")
		assert.ErrorContains(t, err, "failed to unmarshal json")
	}
}
