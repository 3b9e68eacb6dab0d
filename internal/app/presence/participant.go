/*
Package presence is the authoritative record of who is on the floor and where.

It holds the Registry of joined participants, the Floor event loop that serializes every
mutation and broadcasts the result to all connections, and the WebSocket Client that
feeds a connection's events into the Floor.
*/
package presence

import "math"

// Participant is the server-side record of one joined connection.
// Fields use JSON tags for serialization in WebSocket events.
type Participant struct {
	// ID is the connection identity minted by the transport layer.
	ID string `json:"id"`

	// Name is the display name supplied on join.
	Name string `json:"name"`

	// AvatarURL is the current appearance reference, always an entry of the Catalog.
	AvatarURL string `json:"avatarUrl"`

	// X and Y always lie within the Registry's Bounds.
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds is the rectangle [0, Width] x [0, Height] every stored position lies in.
type Bounds struct {
	Width  int
	Height int
}

// Clamp rounds a requested position to integers and pulls each axis into the rectangle.
// NaN is treated as 0.
func (b Bounds) Clamp(x, y float64) (int, int) {
	return clampAxis(x, b.Width), clampAxis(y, b.Height)
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (b Bounds) Contains(x, y int) bool {
	return x >= 0 && x <= b.Width && y >= 0 && y <= b.Height
}

func clampAxis(v float64, limit int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(limit) {
		return limit
	}
	return int(math.Round(v))
}
