package store

// RecountChange records one facility whose cached occupant counter disagreed
// with the number of active sessions referencing it.
type RecountChange struct {
	FacilityID  int64
	Name        string
	Capacity    int
	Maintenance bool
	OldCount    int
	NewCount    int
}
