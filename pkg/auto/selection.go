// Package auto sequences the autonomous period: crossing a field obstacle,
// driving to the goal and scoring, one non-blocking step per control tick.
package auto

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/gwillem/frcbot/pkg/robot"
)

// Position is the starting lane, 1 through 5 from the low bar side.
type Position int

// Valid reports whether p is one of the five lanes.
func (p Position) Valid() bool {
	return p >= 1 && p <= 5
}

// Obstacle identifies a field obstacle.
type Obstacle int

const (
	LowBar Obstacle = iota + 1
	Portcullis
	ChevalDeFrise
	Moat
	Ramparts
	Drawbridge
	SallyPort
	RockWall
	RoughTerrain
)

var obstacleNames = map[Obstacle]string{
	LowBar:        "low-bar",
	Portcullis:    "portcullis",
	ChevalDeFrise: "cheval-de-frise",
	Moat:          "moat",
	Ramparts:      "ramparts",
	Drawbridge:    "drawbridge",
	SallyPort:     "sally-port",
	RockWall:      "rock-wall",
	RoughTerrain:  "rough-terrain",
}

// Obstacles returns every known obstacle in id order.
func Obstacles() []Obstacle {
	return []Obstacle{LowBar, Portcullis, ChevalDeFrise, Moat, Ramparts, Drawbridge, SallyPort, RockWall, RoughTerrain}
}

func (o Obstacle) String() string {
	if name, ok := obstacleNames[o]; ok {
		return name
	}
	return fmt.Sprintf("obstacle(%d)", int(o))
}

// Known reports whether o has a name.
func (o Obstacle) Known() bool {
	_, ok := obstacleNames[o]
	return ok
}

// ParseObstacle accepts an obstacle name or its number.
func ParseObstacle(s string) (Obstacle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range obstacleNames {
		if name == s || fmt.Sprint(int(o)) == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown obstacle %q", s)
}

// Selection is chosen once before the autonomous period and held for the run.
type Selection struct {
	Position     Position
	Obstacle     Obstacle
	AttemptScore bool
}

// SelectionFromSettings converts the stored settings. It does not validate:
// an unknown obstacle or position is the sequencer's to report.
func SelectionFromSettings(s robot.AutoSettings) Selection {
	return Selection{
		Position:     Position(s.Position),
		Obstacle:     Obstacle(s.Obstacle),
		AttemptScore: s.AttemptScore,
	}
}

// Settings converts back for saving.
func (s Selection) Settings() robot.AutoSettings {
	return robot.AutoSettings{
		Position:     int(s.Position),
		Obstacle:     int(s.Obstacle),
		AttemptScore: s.AttemptScore,
	}
}

// Validate reports every problem with the selection.
func (s Selection) Validate() error {
	var err error
	if !s.Position.Valid() {
		err = multierr.Append(err, fmt.Errorf("position %d out of range 1-5", s.Position))
	}
	if !s.Obstacle.Known() {
		err = multierr.Append(err, errors.New("unknown "+s.Obstacle.String()))
	}
	return err
}

func (s Selection) String() string {
	return fmt.Sprintf("position %d, %v, score=%v", s.Position, s.Obstacle, s.AttemptScore)
}
