// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashString computes an HMAC-SHA256 signature over the given string
// using the provided hash key and returns the result as a hex-encoded string.
//
// The payment gateway signs checkout results and webhook bodies this way.
//
// Example usage:
//
//	signature := utils.HashString(orderID+"|"+paymentID, keySecret)
func HashString(data string, hashKey string) string {
	return hex.EncodeToString(hashBytes([]byte(data), hashKey))
}

// HashBytes is [HashString] for a raw payload such as a request body.
func HashBytes(data []byte, hashKey string) string {
	return hex.EncodeToString(hashBytes(data, hashKey))
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of data
// under hashKey. The comparison runs in constant time.
func VerifySignature(data []byte, signature, hashKey string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(got, hashBytes(data, hashKey))
}

func hashBytes(data []byte, hashKey string) []byte {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write(data)
	return hasher.Sum(nil)
}
