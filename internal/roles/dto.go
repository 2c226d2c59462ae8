package roles

import (
	"strings"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Input is the create and update payload. SelectedPermissions holds permission names.
type Input struct {
	Name                string   `json:"name" validate:"required,min=3,max=255"`
	SelectedPermissions []string `json:"selectedPermissions" validate:"required,min=1,dive,required"`
}

func (in Input) normalized() Input {
	in.Name = strings.TrimSpace(in.Name)
	names := make([]string, 0, len(in.SelectedPermissions))
	for _, name := range in.SelectedPermissions {
		names = append(names, strings.TrimSpace(name))
	}
	if in.SelectedPermissions != nil {
		in.SelectedPermissions = names
	}
	return in
}

// ListResult is the index payload.
type ListResult struct {
	Roles   shared.Page[ListItem] `json:"roles"`
	Filters shared.EchoedFilters  `json:"filters"`
}

// CreateForm lists the selectable permissions.
type CreateForm struct {
	Permissions []PermissionGroup `json:"permissions"`
}

// EditForm carries the role with its current permissions and the selectable set.
type EditForm struct {
	Role        Role              `json:"role"`
	Permissions []PermissionGroup `json:"permissions"`
}
