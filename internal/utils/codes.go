package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// RoomCodeAlphabet leaves out 0, O, 1 and I.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const RoomCodeLength = 6

func GenerateRoomCode() (string, error) {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(RoomCodeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeRoomCode upper-cases code and reports whether it is well formed.
func NormalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != RoomCodeLength {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(RoomCodeAlphabet, rune(code[i])) {
			return code, false
		}
	}
	return code, true
}
