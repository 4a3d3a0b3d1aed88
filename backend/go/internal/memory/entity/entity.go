// Package entity defines the closed catalog of personal-fact categories.
// Extraction output is validated against this catalog exactly once, at the
// boundary; nothing outside the catalog is ever persisted.
package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Entity is a recognized category of personal fact.
type Entity string

const (
	Name               Entity = "name"
	Age                Entity = "age"
	Location           Entity = "location"
	Profession         Entity = "profession"
	Occupation         Entity = "occupation"
	Hobbies            Entity = "hobbies"
	Interests          Entity = "interests"
	Preferences        Entity = "preferences"
	Family             Entity = "family"
	Education          Entity = "education"
	Goals              Entity = "goals"
	Aspirations        Entity = "aspirations"
	Health             Entity = "health"
	Pets               Entity = "pets"
	Relationships      Entity = "relationships"
	Skills             Entity = "skills"
	Languages          Entity = "languages"
	DietaryPreferences Entity = "dietary_preferences"
	Other              Entity = "other"
)

// ErrUnrecognized is returned when a category name is not in the catalog.
var ErrUnrecognized = errors.New("unrecognized entity")

// all lists every recognized entity. The catalog is fixed; extending it is
// a code change, not a runtime registration.
var all = []Entity{
	Name, Age, Location, Profession, Occupation,
	Hobbies, Interests, Preferences, Family, Education,
	Goals, Aspirations, Health, Pets, Relationships,
	Skills, Languages, DietaryPreferences, Other,
}

var catalog = func() map[Entity]struct{} {
	m := make(map[Entity]struct{}, len(all))
	for _, e := range all {
		m[e] = struct{}{}
	}
	return m
}()

// All returns every recognized entity in catalog order.
func All() []Entity {
	out := make([]Entity, len(all))
	copy(out, all)
	return out
}

// Normalize case-folds and trims a raw category name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsRecognized reports whether the (normalized) name is in the catalog.
func IsRecognized(name string) bool {
	_, ok := catalog[Entity(Normalize(name))]
	return ok
}

// Parse normalizes a raw category name and validates it against the
// catalog.
func Parse(name string) (Entity, error) {
	e := Entity(Normalize(name))
	if _, ok := catalog[e]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognized, name)
	}
	return e, nil
}

func (e Entity) String() string {
	return string(e)
}
