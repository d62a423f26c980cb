package model

// SMS is an outbound text message.
type SMS struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Inbound is a text message received from the SMS webhook.
type Inbound struct {
	From string `json:"from"`
	Body string `json:"body"`
	SID  string `json:"sid,omitempty"` // provider message id, used for dedupe
}
