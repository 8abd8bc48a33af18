// Package codec converts job envelopes and outcomes to and from their
// JSON wire form on the work queue and the result store.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/24p11/predict-api/internal/domain"
)

const (
	fieldID   = "id"
	fieldText = "text"
)

// outcomeWire fixes the key order of an encoded outcome
type outcomeWire struct {
	Labels       []string `json:"labels"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Status       string   `json:"status"`
}

// Decode parses a queue message into an envelope.
// Everything except id and text is returned as meta.
func Decode(raw []byte) (domain.Envelope, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if fields == nil {
		return domain.Envelope{}, fmt.Errorf("%w: not a JSON object", domain.ErrMalformedPayload)
	}

	id, err := stringField(fields, fieldID)
	if err != nil {
		return domain.Envelope{}, err
	}
	text, err := stringField(fields, fieldText)
	if err != nil {
		return domain.Envelope{}, err
	}

	delete(fields, fieldID)
	delete(fields, fieldText)

	return domain.Envelope{
		ID:   id,
		Text: text,
		Meta: fields,
	}, nil
}

func stringField(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", domain.NewMissingFieldError(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q must be a string", domain.ErrMalformedPayload, key)
	}
	return s, nil
}

// EncodeEnvelope renders an envelope with id and text first, then meta keys in sorted order
func EncodeEnvelope(env domain.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeMember(&buf, fieldID, env.ID); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeMember(&buf, fieldText, env.Text); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(env.Meta))
	for k := range env.Meta {
		if k == fieldID || k == fieldText {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeMember(&buf, k, env.Meta[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// EncodeOutcome renders an outcome including its derived status
func EncodeOutcome(outcome domain.Outcome) ([]byte, error) {
	labels := outcome.Labels
	if labels == nil {
		labels = []string{}
	}

	data, err := json.Marshal(outcomeWire{
		Labels:       labels,
		ErrorMessage: outcome.ErrorMessage,
		Status:       outcome.Status(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}
	return data, nil
}

// DecodeOutcome parses a stored outcome. The stored status is ignored and re-derived.
func DecodeOutcome(raw []byte) (domain.Outcome, error) {
	var wire outcomeWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	return domain.Outcome{
		Labels:       wire.Labels,
		ErrorMessage: wire.ErrorMessage,
	}, nil
}
