package miner

import "time"

// Service endpoints.
const (
	dashboardURL = "https://app.nexus.xyz/"
	ipCheckURL   = "https://api.ipify.org?format=json"
)

// Retry budgets. These are deliberate fixed constants, not configuration.
const (
	connectAttempts   = 3
	loginAttempts     = 3
	statFetchAttempts = 4
	toggleAttempts    = 3
)

// Dashboard selectors and markers.
const (
	balanceSelector = "#balance-display span"
	toggleSelector  = "#connect-toggle-button"
	speedSelector   = "#speed-display"
)

var pointsSelectors = []string{
	"#balance-display span",
	".balance-display",
	`[data-testid="balance"]`,
}

var loginSuccessSelectors = []string{balanceSelector, toggleSelector}

// blockMarkers are matched case-insensitively against the rendered document
// to detect bot checks and access errors.
var blockMarkers = []string{
	"captcha",
	"verify you are not a bot",
	"access denied",
	"403 forbidden",
}

// Persistent-storage keys the dashboard reads its tokens from.
const (
	authTokenKey    = "dynamic_authentication_token"
	minAuthTokenKey = "dynamic_min_authentication_token"
)

// userAgents is the identity pool; one entry is picked per surface.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:130.0) Gecko/20100101 Firefox/130.0",
}

const (
	viewportWidth  = 1280
	viewportHeight = 720
)

// timings groups every fixed delay of the lifecycle. Tests zero them out;
// production sessions always use defaultTimings.
type timings struct {
	connectTimeout    time.Duration
	connectRetryDelay time.Duration

	navigationTimeout time.Duration
	loginRetryDelay   time.Duration
	loginWaitTimeout  time.Duration

	initialSettle  time.Duration
	refreshSettle  time.Duration
	statSettle     time.Duration
	statRetryDelay time.Duration

	togglePrecheck  time.Duration
	togglePostClick time.Duration

	miningInterval time.Duration

	ipCheckTimeout time.Duration
}

func defaultTimings() timings {
	return timings{
		connectTimeout:    20 * time.Second,
		connectRetryDelay: 3 * time.Second,

		navigationTimeout: 30 * time.Second,
		loginRetryDelay:   3 * time.Second,
		loginWaitTimeout:  30 * time.Second,

		initialSettle:  5 * time.Second,
		refreshSettle:  10 * time.Second,
		statSettle:     6 * time.Second,
		statRetryDelay: 3 * time.Second,

		togglePrecheck:  2 * time.Second,
		togglePostClick: time.Second,

		miningInterval: 30 * time.Second,

		ipCheckTimeout: 20 * time.Second,
	}
}
