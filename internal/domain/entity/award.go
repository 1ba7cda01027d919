package entity

import "time"

const BadgeInstructor = "instructor"

type Badge struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

type Award struct {
	ID        int64     `json:"id"`
	PersonID  int64     `json:"person_id"`
	Person    *Person   `json:"person,omitempty"`
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awarded"`
}

func (a *Award) ModelName() string { return string(RelationAward) }
func (a *Award) PrimaryKey() int64 { return a.ID }
