package converters

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrMalformedIdentifier = errors.New("malformed identifier")

// Role names how a column's raw binlog payload should be decoded.
type Role string

const (
	RoleRaw    Role = "raw"
	RoleUUID   Role = "uuid"
	RoleString Role = "string"
	RoleJSON   Role = "json"
)

func (r Role) Validate() error {
	switch r {
	case "", RoleRaw, RoleUUID, RoleString, RoleJSON:
		return nil
	default:
		return fmt.Errorf("unsupported column role: %q", r)
	}
}

type ValueConverter interface {
	Convert(value any) (any, error)
}

func ValueConverterForRole(role Role) (ValueConverter, error) {
	switch role {
	case "", RoleRaw:
		return Passthrough{}, nil
	case RoleUUID:
		return UUIDConverter{}, nil
	case RoleString:
		return StringConverter{}, nil
	case RoleJSON:
		return JSONConverter{}, nil
	}
	return nil, fmt.Errorf("unable to get value converter for role %q", role)
}

// asBytes accepts the two shapes the replication decoder produces for string and binary columns.
func asBytes(value any) ([]byte, error) {
	switch castValue := value.(type) {
	case []byte:
		return castValue, nil
	case string:
		return []byte(castValue), nil
	}
	return nil, fmt.Errorf("expected []byte or string got %T with value: %v", value, value)
}

// Passthrough leaves values exactly as the replication decoder produced them.
type Passthrough struct{}

func (Passthrough) Convert(value any) (any, error) {
	return value, nil
}

// UUIDConverter reads a BINARY(16) column as an RFC 4122 identifier.
type UUIDConverter struct{}

func (UUIDConverter) Convert(value any) (any, error) {
	bytes, err := asBytes(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}

	if len(bytes) != 16 {
		return nil, fmt.Errorf("%w: expected 16 bytes, got %d", ErrMalformedIdentifier, len(bytes))
	}

	id, err := uuid.FromBytes(bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedIdentifier, err)
	}
	return id, nil
}

type StringConverter struct{}

func (StringConverter) Convert(value any) (any, error) {
	bytes, err := asBytes(value)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

type JSONConverter struct{}

func (JSONConverter) Convert(value any) (any, error) {
	bytes, err := asBytes(value)
	if err != nil {
		return nil, err
	}

	var out any
	if err = json.Unmarshal(bytes, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return out, nil
}
