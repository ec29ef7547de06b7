// Package models defines the core domain models for the expense ledger.
//
// # Ledger
//
//   - Expense: a cost logged in a group, optionally with a due date
//   - PayerShare: one user's owed portion of an expense and whether it is paid
//
// # Notifications
//
//   - Intent: an in-memory notification addressed to one user
//   - DeviceToken: a push token registered by a user's device
//   - DeliveryRecord: proof that an intent was pushed to a device
//
// # Collaborators
//
// User and Group are read-only views of records owned by other parts of the
// system (authentication, group management). The ledger never creates them
// outside of tests.
//
// # Conventions
//
//  1. Money is decimal.Decimal, never float64
//  2. Timestamps are Unix seconds (int64), zero meaning unset
//  3. Due dates are calendar days; only the year, month and day are meaningful
//  4. Relationships are ID strings, not pointers
package models
