package event

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Type Type `json:"type"`
}

// Marshal encodes a payload with its "type" discriminant inlined.
func Marshal(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidInput)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Type(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", p.Type(), err)
	}
	fields["type"], _ = json.Marshal(p.Type())
	return json.Marshal(fields)
}

// Unmarshal decodes a tagged payload. Unknown discriminants are invalid input.
func Unmarshal(data []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var p Payload
	switch env.Type {
	case TypeEmailView:
		p = EmailView{}
	case TypeEmailDetailsView:
		p = EmailDetailsView{}
	case TypeEmailExternalImagesView:
		p = EmailExternalImagesView{}
	case TypeEmailMoved:
		var v EmailMoved
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p = v
	case TypeEmailScrolled:
		var v EmailScrolled
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p = v
	case TypeEmailLinkClick:
		var v EmailLinkClick
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p = v
	case TypeEmailLinkHover:
		var v EmailLinkHover
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		p = v
	case "":
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, env.Type)
	}
	return p, nil
}

// MarshalJSON renders the event with its payload under "data".
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	var data json.RawMessage
	if e.Payload != nil {
		raw, err := Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(struct {
		alias
		Type Type            `json:"type,omitempty"`
		Data json.RawMessage `json:"data,omitempty"`
	}{alias: alias(e), Type: typeOf(e.Payload), Data: data})
}

func typeOf(p Payload) Type {
	if p == nil {
		return ""
	}
	return p.Type()
}
