package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DispatchTimeout    = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
)

const (
	FetchMaxAttempts = 3
	FetchBackoff     = 2 * time.Second

	DispatchMaxAttempts = 3
	DispatchBackoff     = 2 * time.Second

	// pause between consecutive webhook posts to stay under rate limits
	DispatchPacing = 100 * time.Millisecond
)

// Time-control category thresholds, in seconds of base thinking time.
const (
	BulletMaxSeconds = 180
	BlitzMaxSeconds  = 480
	RapidMaxSeconds  = 1500
)

// Discord embed colors.
const (
	ColorWin  = 65280    // green
	ColorLoss = 16711680 // red
	ColorDraw = 8421504  // gray
	ColorWarn = 16753920 // orange
)

const DeadlineAlertWindow = 24 * time.Hour

// DefaultLeagueThresholds maps league code to the trophy count that
// historically guarantees advancement. The top league has no cutoff and is
// intentionally absent, so it never produces a deadline alert.
var DefaultLeagueThresholds = map[string]int{
	"wood":     20,
	"stone":    25,
	"bronze":   30,
	"silver":   35,
	"crystal":  40,
	"elite":    45,
	"champion": 50,
}

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
)

const ShutdownTimeout = 5 * time.Second
