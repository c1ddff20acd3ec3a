// Package model defines the shared instrument data types used across the
// TSETMC pusher.
//
// Conventions:
//   - Prices: integer rials (smallest currency unit), no decimals anywhere
//   - Identities: 12-character alphanumeric ISIN codes
//   - The order book has a fixed depth of 5 ranked rows (rank 0 = best)
package model
