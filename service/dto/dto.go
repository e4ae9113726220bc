package dto

import "time"

type Delivery struct {
	Code         string    `json:"code"`
	Status       int       `json:"status"`
	StatusName   string    `json:"status_name"`
	ErrorCode    *int      `json:"error_code"`
	ErrorName    string    `json:"error_name,omitempty"`
	Paused       bool      `json:"paused"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Remaining    string    `json:"remaining"`
	RecipientRef string    `json:"recipient_ref"`
}

type Purchase struct {
	InvoiceID int64   `json:"invoice_id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

type Order struct {
	Delivery Delivery `json:"delivery"`
	Purchase Purchase `json:"purchase"`
}

type Remaining struct {
	Remaining string `json:"remaining"`
	Seconds   int64  `json:"seconds"`
}

// StatusChange answers a status poll. NewStatus is -1 when nothing changed
// or the delivery is halted with Error.
type StatusChange struct {
	NewStatus int  `json:"newStatus"`
	Error     *int `json:"error,omitempty"`
}

type Link struct {
	Link string `json:"link"`
}

type Profile struct {
	URL    string `json:"url"`
	ID64   string `json:"id64,omitempty"`
	ID3    string `json:"id3,omitempty"`
	Name   string `json:"name,omitempty"`
	Public bool   `json:"public"`
}

type Worker struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	StartedAt time.Time `json:"started_at"`
}
