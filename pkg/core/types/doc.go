// Package types defines the account, instruction, transaction and receipt
// types shared by the host and its programs.
package types
