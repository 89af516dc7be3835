package cqrs

// ---------- Account queries ----------

// GetAccountQuery fetches every account stored under a handle.
type GetAccountQuery struct {
	Handle string
}
