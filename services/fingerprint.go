package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint derives a content hash from the fields that identify a property
// independently of the vendor id. Text fields are folded first, so casing,
// accents and spacing differences do not produce distinct fingerprints.
func Fingerprint(title string, price int, city string, surface int) string {
	key := strings.Join([]string{
		Fold(title),
		strconv.Itoa(price),
		Fold(city),
		strconv.Itoa(surface),
	}, "|")

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
