package timezone

import (
	"sync"
	"time"

	"retreat/config"

	"github.com/rs/zerolog/log"
)

var (
	appLocation *time.Location
	loadOnce    sync.Once
	clock       = time.Now
)

func location() *time.Location {
	loadOnce.Do(func() {
		name := config.Get().App.Timezone
		if name == "" {
			log.Warn().Msg("No timezone configured, using UTC as default")

			name = "UTC"
		}

		loc, err := time.LoadLocation(name)
		if err != nil {
			log.Error().
				Err(err).
				Str("timezone", name).
				Msg("Failed to load timezone, falling back to UTC")

			appLocation = time.UTC

			return
		}

		appLocation = loc
	})

	return appLocation
}

// Now returns the current time in the application timezone.
func Now() time.Time {
	return clock().In(location())
}

// ToAppTime converts a time to the application timezone.
func ToAppTime(t time.Time) time.Time {
	return t.In(location())
}

// GetLocation returns the application timezone location.
func GetLocation() *time.Location {
	return location()
}

// Format formats a time in the application timezone.
func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}

// Freeze pins Now to the given instant and returns a restore func. Tests only.
func Freeze(at time.Time) func() {
	previous := clock
	clock = func() time.Time { return at }

	return func() { clock = previous }
}
