package cqrs

type CreateAccountCommand struct {
	Handle string
}

// ImportAccountsCommand creates several accounts in one transaction.
type ImportAccountsCommand struct {
	Handles []string
}
