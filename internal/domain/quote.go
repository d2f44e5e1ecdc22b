package domain

import "time"

// Quote sources.
const (
	SourceCLI  = "cli"
	SourceTUI  = "tui"
	SourceHTTP = "http"
)

// Quote is a priced set of inputs as recorded in history.
type Quote struct {
	ID        string       `json:"id"`
	Inputs    OptionInputs `json:"inputs"`
	Prices    Prices       `json:"prices"`
	Source    string       `json:"source"`
	CreatedAt time.Time    `json:"created_at"`
}

// QuoteRecord quote with its position in the store.
type QuoteRecord struct {
	Index uint64 `json:"index"`
	Quote Quote  `json:"quote"`
}
