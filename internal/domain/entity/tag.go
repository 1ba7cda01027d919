package entity

const (
	TagSWC      = "SWC"
	TagDC       = "DC"
	TagLC       = "LC"
	TagCircuits = "Circuits"
	TagTTT      = "TTT"

	TagCancelled      = "cancelled"
	TagUnresponsive   = "unresponsive"
	TagStalled        = "stalled"
	TagAutomatedEmail = "automated-email"
)

var (
	CarpentriesTagNames    = []string{TagSWC, TagDC, TagLC, TagCircuits}
	NonCarpentriesTagNames = []string{TagTTT, "ITT", "WiSE", "Pilot"}
	InactiveTagNames       = []string{TagCancelled, TagUnresponsive, TagStalled}
)

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
