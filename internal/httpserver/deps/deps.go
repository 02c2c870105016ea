package deps

import (
	"time"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/relay"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Bus       *relay.Bus         // Relay to the source and broker contexts
	Manager   *bookmarks.Manager // Panel-side bookmark manager
	SessionID string             // Session the panel is attached to

	ReloadTrigger chan<- struct{} // Channel to trigger a manual profile reload
}
