// Package telegram holds the Mini App initData format: parsing the embedded user and
// computing the data-check signature.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ParseUser decodes the "user" field of already parsed initData.
func ParseUser(values url.Values) (*WebAppUser, error) {
	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SecretKey derives the Mini App signing key: HMAC-SHA256 keyed by "WebAppData" over the bot token.
func SecretKey(botToken string) []byte {
	h := hmac.New(sha256.New, []byte("WebAppData"))
	h.Write([]byte(botToken))
	return h.Sum(nil)
}

// DataCheckString joins every field except hash as sorted k=v lines.
func DataCheckString(values url.Values) string {
	parts := make([]string, 0, len(values))
	for k, v := range values {
		if k == "hash" {
			continue
		}
		parts = append(parts, k+"="+strings.Join(v, ""))
	}
	sort.Strings(parts)
	return strings.Join(parts, "\n")
}

// Signature computes the hex hash the client is expected to send.
func Signature(values url.Values, botToken string) string {
	h := hmac.New(sha256.New, SecretKey(botToken))
	h.Write([]byte(DataCheckString(values)))
	return hex.EncodeToString(h.Sum(nil))
}

// Sign returns values encoded as initData with a valid hash appended.
func Sign(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, v := range values {
		if k != "hash" {
			signed[k] = v
		}
	}
	signed.Set("hash", Signature(signed, botToken))
	return signed.Encode()
}
