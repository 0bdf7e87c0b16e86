package discount

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TagList decodes customer tags sent as a JSON array or a comma separated string.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = ParseTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("customer tags: %w", err)
	}
	*t = list
	return nil
}

// WireCustomer is the customer payload posted by the storefront.
type WireCustomer struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email,omitempty"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Tags      TagList `json:"tags"`
}

// Customer converts the payload, attaching an already resolved lifetime spend.
func (w WireCustomer) Customer() Customer {
	return Customer{ID: w.ID, Tags: []string(w.Tags)}
}
