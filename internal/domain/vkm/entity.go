// internal/domain/vkm/entity.go
package vkm

import (
	"fmt"
	"strconv"
	"time"
)

type Level string

const (
	LevelNLQF5 Level = "NLQF5"
	LevelNLQF6 Level = "NLQF6"
)

var Levels = []Level{LevelNLQF5, LevelNLQF6}

func (l Level) Valid() bool {
	return l == LevelNLQF5 || l == LevelNLQF6
}

type Location string

const (
	LocationBreda             Location = "Breda"
	LocationDenBosch          Location = "Den Bosch"
	LocationTilburg           Location = "Tilburg"
	LocationDenBoschEnTilburg Location = "Den Bosch en Tilburg"
	LocationBredaEnDenBosch   Location = "Breda en Den Bosch"
)

var Locations = []Location{
	LocationBreda,
	LocationDenBosch,
	LocationTilburg,
	LocationDenBoschEnTilburg,
	LocationBredaEnDenBosch,
}

func (l Location) Valid() bool {
	for _, v := range Locations {
		if l == v {
			return true
		}
	}
	return false
}

// StudyCredit is the EC weight of a module.
type StudyCredit int

const (
	StudyCredit15 StudyCredit = 15
	StudyCredit30 StudyCredit = 30
)

func (s StudyCredit) Valid() bool {
	return s == StudyCredit15 || s == StudyCredit30
}

func (s StudyCredit) String() string {
	return strconv.Itoa(int(s))
}

// ParseStudyCredit accepts "15" or "30".
func ParseStudyCredit(s string) (StudyCredit, error) {
	n, err := strconv.Atoi(s)
	if err != nil || !StudyCredit(n).Valid() {
		return 0, fmt.Errorf("invalid study credit %q: want 15 or 30", s)
	}
	return StudyCredit(n), nil
}

// Module is a VKM as served by the API. The backend owns it; the client only
// transports it.
type Module struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	ShortDescription string      `json:"shortDescription"`
	Description      string      `json:"description"`
	Content          string      `json:"content,omitempty"`
	StudyCredit      StudyCredit `json:"studyCredit"`
	Location         Location    `json:"location"`
	ContactID        string      `json:"contactId"`
	Level            Level       `json:"level"`
	LearningOutcomes string      `json:"learningOutcomes"`
	IsActive         bool        `json:"isActive"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	IsFavorited      bool        `json:"isFavorited"`
}
