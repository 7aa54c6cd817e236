// Package lending holds the reserve calculations built on the fixedpoint
// types: flash loan fees and per-slot compounded interest.
package lending
