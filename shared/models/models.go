package models

// Account is a user account keyed by its handle. Name is empty until set.
type Account struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}
