package models

// DefaultQuickLinkIcon is the icon given to user-created links
const DefaultQuickLinkIcon = "FileText"

// QuickLink is a shortcut tile. External links open in a new window
// through the SSO handoff.
type QuickLink struct {
	ID         int    `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Route      string `json:"route" db:"route"`
	Icon       string `json:"icon" db:"icon"`
	IsExternal bool   `json:"isExternal" db:"is_external"`
}

// TableName returns the table name for the QuickLink model
func (QuickLink) TableName() string {
	return "quick_links"
}

// NewQuickLink creates an external link to url. The ID is assigned by the store.
func NewQuickLink(name, url string) *QuickLink {
	return &QuickLink{
		Name:       name,
		Route:      url,
		Icon:       DefaultQuickLinkIcon,
		IsExternal: true,
	}
}
