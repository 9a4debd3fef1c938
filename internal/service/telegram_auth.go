package service

import (
	"crypto/hmac"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"

	"mining_webapp/internal/telegram"
)

// maxClockSkew is how far auth_date may lie in the future.
const maxClockSkew = 5 * time.Minute

// ValidateTelegramInitData verifies Telegram WebApp init_data HMAC and checks
// that the auth_date is not older than maxAge to mitigate replay attacks.
func ValidateTelegramInitData(initData, botToken string, maxAge time.Duration) (url.Values, bool) {
	return validateInitDataAt(initData, botToken, maxAge, time.Now())
}

func validateInitDataAt(initData, botToken string, maxAge time.Duration, now time.Time) (url.Values, bool) {
	if initData == "" || botToken == "" {
		return nil, false
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	calculated, _ := hex.DecodeString(telegram.Signature(values, botToken))
	if !hmac.Equal(calculated, provided) {
		return nil, false
	}
	values.Del("hash")

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > maxAge || age < -maxClockSkew {
		return nil, false
	}

	return values, true
}
