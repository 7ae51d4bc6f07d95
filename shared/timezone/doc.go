// Package timezone keeps every timestamp the service writes (booking rows, webhook
// receipt times, provider idempotency records) in one configured location.
//
// The location comes from APP_TIMEZONE and is resolved lazily on first use:
//
//	now := timezone.Now()
//	stamp := timezone.Format(now, time.RFC3339)
//
// Use IANA names such as "UTC" or "America/Jamaica".
package timezone
