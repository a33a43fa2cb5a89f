package types

// Address identifies an account in the ledger. Addresses are opaque
// economic identities supplied by submitters — not public-key derived —
// so it is a bare string rather than a fixed-size hash.
type Address string

// IsZero returns true if the address is the empty string.
func (a Address) IsZero() bool {
	return a == ""
}

// String returns the address as a plain string.
func (a Address) String() string {
	return string(a)
}
