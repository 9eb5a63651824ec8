package reporting

import (
	"errors"

	"github.com/mamadbah2/stationdash/pkg/clients/stationapi"
)

const (
	MsgAuthRequired   = "Authentication required. Please log in."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgRefreshFailed  = "Failed to refresh data. Please try again."
)

// UserMessage maps a fetch error onto the message shown to the user. It
// returns "" for a nil error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, stationapi.ErrNotAuthenticated):
		return MsgAuthRequired
	case errors.Is(err, stationapi.ErrSessionExpired):
		return MsgSessionExpired
	default:
		return MsgRefreshFailed
	}
}

// IsAuthError reports whether err requires the user to log in again.
func IsAuthError(err error) bool {
	return errors.Is(err, stationapi.ErrNotAuthenticated) || errors.Is(err, stationapi.ErrSessionExpired)
}
