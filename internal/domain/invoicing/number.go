package invoicing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateInvoiceNumber returns a number of the form INV-YYYYMM-NNNN.
func GenerateInvoiceNumber(now time.Time, rng *rand.Rand) string {
	var n int
	if rng != nil {
		n = rng.IntN(10000)
	} else {
		n = rand.IntN(10000)
	}
	return fmt.Sprintf("INV-%04d%02d-%04d", now.Year(), int(now.Month()), n)
}

// SequentialNumber formats the n-th invoice number counted from start.
func SequentialNumber(start, n int) string {
	return fmt.Sprintf("%d", start+n)
}
