package entity

const (
	DomainSelfOrganised    = "self-organized"
	DomainCommunityLessons = "carpentries.org/community-lessons/"
)

type Organization struct {
	ID       int64  `json:"id"`
	Domain   string `json:"domain"`
	FullName string `json:"fullname"`
}

func (o *Organization) ModelName() string { return "organization" }
func (o *Organization) PrimaryKey() int64 { return o.ID }
