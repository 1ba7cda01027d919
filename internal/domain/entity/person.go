package entity

import (
	"strings"
	"time"
)

type Person struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Personal  string    `json:"personal"`
	Middle    string    `json:"middle"`
	Family    string    `json:"family"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Person) ModelName() string { return string(RelationPerson) }
func (p *Person) PrimaryKey() int64 { return p.ID }

func (p *Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Personal, p.Middle, p.Family} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (p *Person) String() string {
	if p.Email == "" {
		return p.FullName()
	}
	return p.FullName() + " <" + p.Email + ">"
}

// Emails returns non-empty addresses of persons, in order.
func Emails(persons []*Person) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		if p != nil && p.Email != "" {
			out = append(out, p.Email)
		}
	}
	return out
}
