package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPaymentReference derives the lookup key for an external payment
// reference. The same input always yields the same key.
func HashPaymentReference(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

// EnsurePaymentHash attaches the lookup hash the first time a payment
// reference is present. An existing hash is never recomputed, even when the
// reference has changed since.
func EnsurePaymentHash(o Order) Order {
	if o.PaymentReference == nil || o.PaymentReferenceHash != nil {
		return o
	}

	hash := HashPaymentReference(*o.PaymentReference)
	o.PaymentReferenceHash = &hash
	return o
}
