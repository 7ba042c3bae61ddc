package fulfillment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Recipient is the shipping address as the storefront sends it
type Recipient struct {
	Address1     string `json:"address1"`
	City         string `json:"city"`
	CountryCode  string `json:"countryCode" binding:"required"`
	ProvinceCode string `json:"provinceCode"`
	Zip          string `json:"zip"`
}

// VariantRef is a provider variant id as received from the storefront.
// It accepts a JSON number, a numeric string or null; anything else is unresolved.
type VariantRef int64

// UnmarshalJSON implements json.Unmarshaler
func (v *VariantRef) UnmarshalJSON(data []byte) error {
	*v = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil
	}
	*v = VariantRef(id)
	return nil
}

// Resolved reports whether the reference names a provider variant
func (v VariantRef) Resolved() bool {
	return v > 0
}

// LineItem is a candidate item in a shipping quote request
type LineItem struct {
	Quantity int        `json:"quantity"`
	Variant  VariantRef `json:"variant"`
}

// ProviderRecipient is the recipient in the provider's naming
type ProviderRecipient struct {
	Address1    string `json:"address1,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	StateCode   string `json:"state_code,omitempty"`
	Zip         string `json:"zip,omitempty"`
}

// ProviderItem is a shippable item in the provider's naming
type ProviderItem struct {
	Quantity  int   `json:"quantity"`
	VariantID int64 `json:"variant_id"`
}

// ShippingRateRequest is the body sent to the provider's rates endpoint
type ShippingRateRequest struct {
	Recipient ProviderRecipient `json:"recipient"`
	Items     []ProviderItem    `json:"items"`
}

// NewShippingRateRequest maps the recipient 1:1 and keeps only items with a
// resolvable variant. It returns ErrEmptyShippableItems when nothing remains.
func NewShippingRateRequest(recipient Recipient, items []LineItem) (*ShippingRateRequest, error) {
	req := &ShippingRateRequest{
		Recipient: ProviderRecipient{
			Address1:    recipient.Address1,
			City:        recipient.City,
			CountryCode: recipient.CountryCode,
			StateCode:   recipient.ProvinceCode,
			Zip:         recipient.Zip,
		},
		Items: make([]ProviderItem, 0, len(items)),
	}
	for _, item := range items {
		if !item.Variant.Resolved() {
			continue
		}
		req.Items = append(req.Items, ProviderItem{
			Quantity:  item.Quantity,
			VariantID: int64(item.Variant),
		})
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyShippableItems
	}
	return req, nil
}

// Rate is a candidate shipping rate as quoted by the provider
type Rate struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Rate            json.Number `json:"rate"`
	Currency        string      `json:"currency,omitempty"`
	MinDeliveryDays int         `json:"minDeliveryDays"`
	MaxDeliveryDays int         `json:"maxDeliveryDays"`
}

// ShippingOption is a rate in the storefront's shape. Amount is in minor units.
type ShippingOption struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Detail    string   `json:"detail"`
	Amount    int64    `json:"amount"`
	Countries []string `json:"countries"`
}

var rateNamePattern = regexp.MustCompile(`^(.*) \((.*)\)`)

// ParseRateName extracts the label from a provider rate name of the form
// "<label> (<detail>)". The parenthesized detail is discarded. ok is false
// when the name does not follow the pattern.
func ParseRateName(name string) (label string, ok bool) {
	m := rateNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DeliveryWindow renders the padded delivery estimate. The provider bounds are
// widened by one day for processing and two for handoff.
func DeliveryWindow(minDays, maxDays int) string {
	return fmt.Sprintf("%d-%d business days", minDays+1, maxDays+2)
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a decimal amount in major currency units to minor units
func MinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRateAmount, amount)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// NewShippingOption transforms a provider rate into a storefront option for
// the given destination country. labeled is false when the rate name did not
// follow the "<label> (<detail>)" pattern and was passed through as-is.
func NewShippingOption(rate Rate, countryCode string) (option ShippingOption, labeled bool, err error) {
	amount, err := MinorUnits(rate.Rate.String())
	if err != nil {
		return ShippingOption{}, false, err
	}
	label, labeled := ParseRateName(rate.Name)
	if !labeled {
		label = rate.Name
	}
	return ShippingOption{
		ID:        rate.ID,
		Label:     label,
		Detail:    DeliveryWindow(rate.MinDeliveryDays, rate.MaxDeliveryDays),
		Amount:    amount,
		Countries: []string{countryCode},
	}, labeled, nil
}
