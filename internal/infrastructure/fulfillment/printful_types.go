package fulfillment

import "encoding/json"

// printfulEnvelope is the common wrapper around every Printful response
type printfulEnvelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  *printfulError  `json:"error"`
}

type printfulError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (e *printfulEnvelope) errorMessage() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Message
}
