package permissions

import "time"

// Permission is a named capability that roles bundle.
type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GuardName string    `json:"guard_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListItem is the row shown in the index: id and name only.
type ListItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func listItems(rows []Permission) []ListItem {
	out := make([]ListItem, 0, len(rows))
	for _, p := range rows {
		out = append(out, ListItem{ID: p.ID, Name: p.Name})
	}
	return out
}
