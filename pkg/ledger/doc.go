// Package ledger stores token accounts, execution receipts and the host
// sequence counter in BadgerDB. Every host execution runs inside one
// Update, so a failed execution leaves no writes behind.
package ledger
