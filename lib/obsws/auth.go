// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obsws

import (
	"crypto/sha256"
	"encoding/base64"
)

// Authenticate computes the Identify authentication string for a Hello
// challenge: base64(sha256(base64(sha256(password + salt)) + challenge)).
func Authenticate(password string, challenge AuthChallenge) string {
	secret := sha256.Sum256([]byte(password + challenge.Salt))
	secretEncoded := base64.StdEncoding.EncodeToString(secret[:])
	response := sha256.Sum256([]byte(secretEncoded + challenge.Challenge))
	return base64.StdEncoding.EncodeToString(response[:])
}
