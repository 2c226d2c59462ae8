package roles

import "time"

// Role bundles permissions under a name.
type Role struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	GuardName   string          `json:"guard_name"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Permissions []PermissionRef `json:"permissions"`
}

// ListItem is the row shown in the index: id, name and the attached permissions.
type ListItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Permissions []PermissionRef `json:"permissions"`
}

func listItems(rows []Role) []ListItem {
	out := make([]ListItem, 0, len(rows))
	for _, r := range rows {
		perms := r.Permissions
		if perms == nil {
			perms = []PermissionRef{}
		}
		out = append(out, ListItem{ID: r.ID, Name: r.Name, Permissions: perms})
	}
	return out
}

// PermissionRef is the slice of a permission shown alongside roles.
type PermissionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PermissionGroup collects permissions sharing their first word, e.g. "users".
type PermissionGroup struct {
	Resource    string          `json:"resource"`
	Permissions []PermissionRef `json:"permissions"`
}

// GroupPermissions partitions perms by the first space-delimited token of the
// name. Groups and members keep the input order.
func GroupPermissions(perms []PermissionRef) []PermissionGroup {
	groups := []PermissionGroup{}
	index := map[string]int{}
	for _, p := range perms {
		resource := firstWord(p.Name)
		i, ok := index[resource]
		if !ok {
			i = len(groups)
			index[resource] = i
			groups = append(groups, PermissionGroup{Resource: resource})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	return groups
}

func firstWord(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}
