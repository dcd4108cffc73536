// Package catalog is the fixed role hierarchy. Levels are the only ordering
// key; names, descriptions and badges are presentational.
package catalog

import (
	"slices"
	"strings"
)

// Level encodes relative privilege. Higher is more privileged.
// The zero value means "no role" and sits below every real role.
type Level int

const (
	LevelNone        Level = 0
	LevelGuest       Level = 10
	LevelContributor Level = 30
	LevelAuthor      Level = 50
	LevelEditor      Level = 70
	LevelAdmin       Level = 90
	LevelSuperAdmin  Level = 100
)

// Badge is the UI variant a role is rendered with.
type Badge string

const (
	BadgeSecondary   Badge = "secondary"
	BadgeOutline     Badge = "outline"
	BadgeDefault     Badge = "default"
	BadgeDestructive Badge = "destructive"
)

const unknownDescription = "No description available"

// Info is the metadata attached to one level of the hierarchy.
type Info struct {
	Level       Level  `json:"level"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Badge       Badge  `json:"badge"`
}

// hierarchy is ordered ascending by level and never mutated after init.
var hierarchy = [...]Info{
	{Level: LevelGuest, Name: "Guest", Description: "Read-only access to backend", Badge: BadgeSecondary},
	{Level: LevelContributor, Name: "Contributor", Description: "Submit content for review", Badge: BadgeOutline},
	{Level: LevelAuthor, Name: "Author", Description: "Create and publish own content", Badge: BadgeDefault},
	{Level: LevelEditor, Name: "Editor", Description: "Manage all content and media", Badge: BadgeDefault},
	{Level: LevelAdmin, Name: "Admin", Description: "User management and settings", Badge: BadgeDefault},
	{Level: LevelSuperAdmin, Name: "SuperAdmin", Description: "Full system access", Badge: BadgeDestructive},
}

var byLevel = func() map[Level]Info {
	m := make(map[Level]Info, len(hierarchy))
	for _, info := range hierarchy {
		m[info.Level] = info
	}
	return m
}()

// Lookup returns the metadata for an exact level.
func Lookup(level Level) (Info, bool) {
	info, ok := byLevel[level]
	return info, ok
}

// ByName finds a role by its display name, ignoring case.
func ByName(name string) (Info, bool) {
	name = strings.TrimSpace(name)
	for _, info := range hierarchy {
		if strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return Info{}, false
}

// All returns a copy of the hierarchy, ascending by level.
func All() []Info {
	return slices.Clone(hierarchy[:])
}

// Below returns the roles strictly below the given level, ascending.
func Below(level Level) []Info {
	out := make([]Info, 0, len(hierarchy))
	for _, info := range hierarchy {
		if info.Level < level {
			out = append(out, info)
		}
	}
	return out
}

func Description(level Level) string {
	if info, ok := byLevel[level]; ok {
		return info.Description
	}
	return unknownDescription
}

// Name returns the display name for a level, or "" when the level is not part of the hierarchy.
func Name(level Level) string {
	return byLevel[level].Name
}

// Valid reports whether level is one of the defined roles.
func (l Level) Valid() bool {
	_, ok := byLevel[l]
	return ok
}

func (l Level) Int() int { return int(l) }
