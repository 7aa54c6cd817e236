// Package processor implements the flash loan receiver program.
//
// A single instruction is defined: tag 0 followed by a little-endian u64
// amount. Given the accounts [destination liquidity, source liquidity, token
// program, transfer authority] it issues exactly one token transfer of amount
// from source to destination. Account consistency, such as whether the
// authority controls the source or both accounts share a mint, is left to the
// token program and the caller.
package processor
