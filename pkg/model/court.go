package model

// Court is the read model the reservation core needs: enough to verify a
// referenced court exists and to scope events to its facility. Court
// management itself lives outside this service.
type Court struct {
	ID         string `json:"id" bson:"_id,omitempty"`
	FacilityID string `json:"facility_id" bson:"facility_id"`
	Name       string `json:"name" bson:"name"`
	SportType  string `json:"sport_type,omitempty" bson:"sport_type,omitempty"`
	Active     bool   `json:"active" bson:"active"`
}
