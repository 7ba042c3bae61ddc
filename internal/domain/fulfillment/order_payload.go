package fulfillment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	payloadValidator     *validator.Validate
	payloadValidatorOnce sync.Once
)

func getPayloadValidator() *validator.Validate {
	payloadValidatorOnce.Do(func() {
		payloadValidator = validator.New()
	})
	return payloadValidator
}

// OrderPayload is a provider order body. Recipient and Items are required;
// every other key, including "draft", is kept in Extra and forwarded untouched.
type OrderPayload struct {
	Recipient json.RawMessage   `validate:"required"`
	Items     []json.RawMessage `validate:"required,min=1,dive,required"`
	Extra     map[string]json.RawMessage

	draft bool
}

// Draft reports whether the caller asked for the order to stay unconfirmed
func (p *OrderPayload) Draft() bool {
	return p.draft
}

// UnmarshalJSON implements json.Unmarshaler
func (p *OrderPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: body must be a JSON object", ErrInvalidOrderPayload)
	}
	*p = OrderPayload{Extra: make(map[string]json.RawMessage, len(fields))}
	for key, value := range fields {
		switch key {
		case "recipient":
			p.Recipient = value
		case "items":
			if err := json.Unmarshal(value, &p.Items); err != nil {
				return fmt.Errorf("%w: items must be an array", ErrInvalidOrderPayload)
			}
		default:
			if key == "draft" {
				p.draft = truthy(value)
			}
			p.Extra[key] = value
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (p OrderPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+2)
	for key, value := range p.Extra {
		out[key] = value
	}
	if p.Recipient != nil {
		out["recipient"] = p.Recipient
	}
	if p.Items != nil {
		items, err := json.Marshal(p.Items)
		if err != nil {
			return nil, err
		}
		out["items"] = items
	}
	return json.Marshal(out)
}

// Validate checks the required fields and their JSON shapes
func (p *OrderPayload) Validate() error {
	if err := getPayloadValidator().Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOrderPayload, describeValidation(err))
	}
	if !isObject(p.Recipient) {
		return fmt.Errorf("%w: recipient must be an object", ErrInvalidOrderPayload)
	}
	for i, item := range p.Items {
		if !isObject(item) {
			return fmt.Errorf("%w: items[%d] must be an object", ErrInvalidOrderPayload, i)
		}
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, ", ")
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// truthy mirrors loose truthiness for flag-like JSON values
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f', 'n':
		return false
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '{', '[':
		return true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	f, err := n.Float64()
	return err == nil && f != 0
}
