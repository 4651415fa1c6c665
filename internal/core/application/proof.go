package application

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DepositProofHash is keccak256(txid || address || value) over the string
// encodings, the same digest the oracle adapter returns for a matched deposit.
func DepositProofHash(txid, address string, value uint64) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(txid))
	h.Write([]byte(address))
	h.Write([]byte(strconv.FormatUint(value, 10)))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func proofMatches(expected, got string) bool {
	normalize := func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "0x")
	}
	return normalize(expected) == normalize(got)
}
