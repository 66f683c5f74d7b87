// internal/domain/vkm/dto.go
package vkm

import (
	"strings"

	"keuzecompass/internal/pkg/api"
	"keuzecompass/internal/pkg/validation"

	"github.com/go-playground/validator/v10"
)

func init() {
	validation.Register("vkm_location", "Kies een geldige locatie.", func(fl validator.FieldLevel) bool {
		return Location(fl.Field().String()).Valid()
	})
	validation.Register("vkm_level", "Kies NLQF5 of NLQF6.", func(fl validator.FieldLevel) bool {
		return Level(fl.Field().String()).Valid()
	})
	validation.Register("vkm_credit", "Studiepunten moeten 15 of 30 zijn.", func(fl validator.FieldLevel) bool {
		return StudyCredit(fl.Field().Int()).Valid()
	})
}

// Filters narrows a module listing. Nil and empty fields are left out of the
// query. Search is matched locally and never sent to the API.
type Filters struct {
	Location    Location
	Level       Level
	StudyCredit *StudyCredit
	IsActive    *bool
	Search      string
}

// Query encodes the filters in the order the API documents them.
func (f Filters) Query() api.Query {
	return api.NewQuery(
		"location", string(f.Location),
		"level", string(f.Level),
		"studyCredit", f.StudyCredit,
		"isActive", f.IsActive,
	)
}

type CreateVKMData struct {
	Name             string      `json:"name" validate:"required"`
	ShortDescription string      `json:"shortDescription" validate:"required"`
	Description      string      `json:"description" validate:"required"`
	Content          string      `json:"content"`
	StudyCredit      StudyCredit `json:"studyCredit" validate:"vkm_credit"`
	Location         Location    `json:"location" validate:"vkm_location"`
	ContactID        string      `json:"contactId" validate:"required"`
	Level            Level       `json:"level" validate:"vkm_level"`
	LearningOutcomes string      `json:"learningOutcomes"`
}

func (d CreateVKMData) Validate() error {
	return validation.Struct(d)
}

// UpdateVKMData is a partial update; only set fields are sent.
type UpdateVKMData struct {
	Name             *string      `json:"name,omitempty" validate:"omitempty,min=1"`
	ShortDescription *string      `json:"shortDescription,omitempty"`
	Description      *string      `json:"description,omitempty"`
	Content          *string      `json:"content,omitempty"`
	StudyCredit      *StudyCredit `json:"studyCredit,omitempty" validate:"omitempty,vkm_credit"`
	Location         *Location    `json:"location,omitempty" validate:"omitempty,vkm_location"`
	ContactID        *string      `json:"contactId,omitempty"`
	Level            *Level       `json:"level,omitempty" validate:"omitempty,vkm_level"`
	LearningOutcomes *string      `json:"learningOutcomes,omitempty"`
	IsActive         *bool        `json:"isActive,omitempty"`
}

func (d UpdateVKMData) Validate() error {
	return validation.Struct(d)
}

// Empty reports whether the update changes nothing.
func (d UpdateVKMData) Empty() bool {
	return d == UpdateVKMData{}
}

// Matches reports whether term occurs in the name or one of the
// descriptions, ignoring case. An empty term matches everything.
func (m Module) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), term) ||
		strings.Contains(strings.ToLower(m.ShortDescription), term) ||
		strings.Contains(strings.ToLower(m.Description), term)
}
