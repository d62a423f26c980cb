package model

// Envelope is the payload published to Kafka for an inbound message.
type Envelope struct {
	ID         string  `json:"id"` // ULID
	Inbound    Inbound `json:"inbound"`
	ReceivedAt int64   `json:"received_at"` // unix millis
}
