package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
)

// Decoded is a document in one of its known shapes. Exactly one of Store and
// Legacy is set.
type Decoded struct {
	Store  *stats.Store
	Legacy *stats.LegacyDocument
}

// Decode parses a stored document. Empty input decodes to a new store. A bare
// JSON array, or an object holding only "compressions", is the legacy flat
// shape.
func Decode(data []byte) (Decoded, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Decoded{Store: stats.NewStore()}, nil
	}

	switch trimmed[0] {
	case '[':
		var events []stats.Event
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		return Decoded{Legacy: &stats.LegacyDocument{Compressions: events}}, nil
	case '{':
	default:
		return Decoded{}, fmt.Errorf("%w: not a JSON object or array", ErrCorruptDocument)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	_, hasVersion := fields["version"]
	_, hasRecent := fields["recent"]
	_, hasCompressions := fields["compressions"]

	switch {
	case len(fields) == 0:
		return Decoded{Store: stats.NewStore()}, nil
	case hasVersion || hasRecent:
		var s stats.Store
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		s.Normalize()
		return Decoded{Store: &s}, nil
	case hasCompressions:
		var legacy stats.LegacyDocument
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return Decoded{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		return Decoded{Legacy: &legacy}, nil
	default:
		return Decoded{}, fmt.Errorf("%w: unrecognised document shape", ErrCorruptDocument)
	}
}

// Encode serialises a store in the current shape.
func Encode(s *stats.Store) ([]byte, error) {
	s.Normalize()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal statistics document: %w", err)
	}
	return data, nil
}
