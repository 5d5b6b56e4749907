// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Reference value: echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac secret
func TestHashString_Deterministic(t *testing.T) {
	a := HashString("order_1|pay_1", "secret")
	b := HashString("order_1|pay_1", "secret")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashString_DifferentKeys(t *testing.T) {
	assert.NotEqual(t, HashString("payload", "k1"), HashString("payload", "k2"))
}

func TestHashBytes_MatchesHashString(t *testing.T) {
	assert.Equal(t, HashString(`{"event":"x"}`, "whsec"), HashBytes([]byte(`{"event":"x"}`), "whsec"))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := HashBytes(body, "whsec")

	assert.True(t, VerifySignature(body, sig, "whsec"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature([]byte(`{}`), sig, "whsec"))
	assert.False(t, VerifySignature(body, "not-hex", "whsec"))
	assert.False(t, VerifySignature(body, "", "whsec"))
}
