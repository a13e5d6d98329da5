package whatsapp

import (
	"encoding/json"
	"fmt"
)

// Message is an inbound WhatsApp message.
type Message struct {
	From      string      `json:"from"`
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp,omitempty"`
	Type      string      `json:"type,omitempty"`
	Text      *Text       `json:"text,omitempty"`
	Kapso     *KapsoExtra `json:"kapso,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// KapsoExtra holds the fields Kapso adds to Meta messages.
type KapsoExtra struct {
	Direction string `json:"direction,omitempty"`
}

// Body returns the text body, or "" for non-text messages.
func (m *Message) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// Direction returns "inbound" unless Kapso marked the message otherwise.
func (m *Message) Direction() string {
	if m.Kapso == nil || m.Kapso.Direction == "" {
		return "inbound"
	}
	return m.Kapso.Direction
}

// IsOutbound reports whether the message is an echo of a message we sent.
func (m *Message) IsOutbound() bool {
	return m.Direction() == "outbound"
}

// Delivery is one message together with the business number it was sent to.
// PhoneNumberID is empty when the payload did not carry one.
type Delivery struct {
	Message       Message
	PhoneNumberID string
}

type metaPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []Message `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type kapsoItem struct {
	Message       *Message `json:"message"`
	PhoneNumberID string   `json:"phone_number_id"`
}

type kapsoPayload struct {
	kapsoItem
	Data []kapsoItem `json:"data"`
}

// Normalize extracts messages from a Meta webhook, a batched Kapso webhook
// (data[]), or a single Kapso event, keeping payload order.
func Normalize(raw []byte) ([]Delivery, error) {
	var meta metaPayload
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	var deliveries []Delivery
	for _, entry := range meta.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				deliveries = append(deliveries, Delivery{Message: msg, PhoneNumberID: change.Value.Metadata.PhoneNumberID})
			}
		}
	}
	if len(deliveries) > 0 {
		return deliveries, nil
	}

	var kapso kapsoPayload
	if err := json.Unmarshal(raw, &kapso); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	for _, item := range kapso.Data {
		if item.Message != nil {
			deliveries = append(deliveries, Delivery{Message: *item.Message, PhoneNumberID: item.PhoneNumberID})
		}
	}
	if kapso.Message != nil {
		deliveries = append(deliveries, Delivery{Message: *kapso.Message, PhoneNumberID: kapso.PhoneNumberID})
	}
	return deliveries, nil
}
