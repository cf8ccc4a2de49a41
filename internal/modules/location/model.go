// README: Passenger location update and map defaults.
package location

import "bettercommute/internal/types"

// DefaultCenter is used when no location has been shared (permission denied or never sent).
var DefaultCenter = types.Point{Lat: 40.7128, Lng: -74.0060}

type Update struct {
	UserID   types.ID
	Position types.Point
}
