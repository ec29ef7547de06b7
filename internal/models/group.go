package models

// Group is the ledger's view of a group of users sharing expenses.
type Group struct {
	// ID is the unique identifier for the group.
	ID string

	// Title is the display name of the group (e.g., "Apartment 302").
	Title string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
