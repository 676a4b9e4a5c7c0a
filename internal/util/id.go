package util

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// referencePrefix is the customer-facing prefix on order reference codes.
const referencePrefix = "GSP-"

func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateReference produces an order reference of the form GSP-XXXXXXXX,
// where the suffix is 8 uppercase hex characters from a fresh random UUID.
// Collisions are negligible but not impossible; the orders table carries a
// unique index on the reference, so an insert conflict is retryable.
func GenerateReference() string {
	id := uuid.New()
	return referencePrefix + strings.ToUpper(hex.EncodeToString(id[:4]))
}
