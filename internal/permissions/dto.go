package permissions

import (
	"strings"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Input is the create and update payload.
type Input struct {
	Name string `json:"name" validate:"required,min=3,max=255"`
}

func (in Input) normalized() Input {
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// ListResult is the index payload.
type ListResult struct {
	Permissions shared.Page[ListItem] `json:"permissions"`
	Filters     shared.EchoedFilters  `json:"filters"`
}

// CreateForm is the payload of the create screen. It carries no data.
type CreateForm struct{}

// EditForm is the payload of the edit screen.
type EditForm struct {
	Permission Permission `json:"permission"`
}
