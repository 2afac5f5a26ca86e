package payments

// InitiateResult carries the hosted checkout handle back to the client.
type InitiateResult struct {
	PaymentURL string `json:"payment_url"`
	SessionKey string `json:"session_key"`
}

// Evidence is the callback material identifying one gateway outcome. The
// same logical event may arrive over the redirect and the IPN channel.
type Evidence struct {
	ValidationID  string
	TransactionID string
}

// FinalizeOutcome distinguishes the single winning settlement from the
// idempotent replays that follow it.
type FinalizeOutcome string

const (
	FinalizeOutcomeSettled   FinalizeOutcome = "settled"
	FinalizeOutcomeDuplicate FinalizeOutcome = "duplicate"
)

// FinalizeResult reports how a finalize call resolved.
type FinalizeResult struct {
	OrderID int64           `json:"order_id"`
	Outcome FinalizeOutcome `json:"outcome"`
}

// RefundResult carries the processor's refund reference.
type RefundResult struct {
	OrderID     int64  `json:"order_id"`
	RefundRefID string `json:"refund_ref_id"`
	AmountCents int64  `json:"amount_cents"`
}
