package enums

// LocationStatus tracks progress of device location detection.
type LocationStatus string

const (
	LocationStatusIdle      LocationStatus = "idle"
	LocationStatusDetecting LocationStatus = "detecting"
	LocationStatusResolved  LocationStatus = "resolved"
	LocationStatusFailed    LocationStatus = "failed"
)

// String implements fmt.Stringer.
func (s LocationStatus) String() string {
	return string(s)
}
