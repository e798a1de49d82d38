package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Key scopes a cached read. Aims collections are keyed by
// {user, level, year, month}; the parent->children link index is keyed by
// {user, parent}.
type Key struct {
	Kind     string     `json:"kind"`
	UserID   uuid.UUID  `json:"user_id"`
	Level    string     `json:"level,omitempty"`
	Year     int        `json:"year,omitempty"`
	Month    *int       `json:"month,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// AimsKey scopes one level's windowed collection. month0 is nil for
// year-windowed levels (year, month) and set for month-windowed ones
// (week, day).
func AimsKey(userID uuid.UUID, level string, year int, month0 *int) Key {
	return Key{Kind: "aims", UserID: userID, Level: level, Year: year, Month: month0}
}

// LinksKey scopes the cached children index of one parent aim.
func LinksKey(userID, parentID uuid.UUID) Key {
	p := parentID
	return Key{Kind: "aim_links", UserID: userID, ParentID: &p}
}

func (k Key) String() string {
	if k.Kind == "aim_links" {
		parent := ""
		if k.ParentID != nil {
			parent = k.ParentID.String()
		}
		return fmt.Sprintf("aim_links:%s:parents:%s", k.UserID, parent)
	}
	month := "-"
	if k.Month != nil {
		month = fmt.Sprintf("%d", *k.Month)
	}
	return fmt.Sprintf("aims:%s:%s:%d:%s", k.UserID, k.Level, k.Year, month)
}
