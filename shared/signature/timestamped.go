package signature

import (
	"crypto/hmac"
	"strconv"
	"strings"
	"time"
)

// SignTimestamped signs "<unix>.<body>", the scheme used by the payment provider.
func SignTimestamped(body []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)

	return "t=" + ts + ",v1=" + Sign(append([]byte(ts+"."), body...), secret)
}

// VerifyTimestamped checks a "t=<unix>,v1=<hex>[,v1=<hex>...]" header. Any v1 entry may match.
func VerifyTimestamped(body []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return ErrMissingSecret
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingHeader
	}

	var (
		timestamp string
		digests   []string
	)

	for _, segment := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(segment), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			timestamp = value
		case "v1":
			digests = append(digests, strings.ToLower(value))
		}
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || len(digests) == 0 {
		return ErrMalformed
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return ErrExpired
		}
	}

	expected := []byte(Sign(append([]byte(timestamp+"."), body...), secret))

	for _, digest := range digests {
		if hmac.Equal(expected, []byte(digest)) {
			return nil
		}
	}

	return ErrMismatch
}
