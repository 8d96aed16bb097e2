package route

// RoutePatch lists the route fields an update may change. A nil field is
// left unchanged.
type RoutePatch struct {
	Name              *string
	TotalDistance     *float64
	EstimatedDuration *float64
	Description       *string
	Active            *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p RoutePatch) IsEmpty() bool {
	return p.Name == nil && p.TotalDistance == nil && p.EstimatedDuration == nil &&
		p.Description == nil && p.Active == nil
}

// StopPatch lists the stop fields an update may change. A nil field is left
// unchanged.
type StopPatch struct {
	CityName           *string
	Sequence           *int
	DistanceFromOrigin *float64
	StopDuration       *float64
	StopType           *string
	Active             *bool
}
