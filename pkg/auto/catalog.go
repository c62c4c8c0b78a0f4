package auto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/gwillem/frcbot/pkg/robot"
)

// Catalog maps a selection to the routines that make up the run.
type Catalog struct {
	obstacles map[Obstacle]Routine
	goals     map[Position]Routine
	score     Routine
}

// DefaultCatalog returns the competition routines.
func DefaultCatalog() *Catalog {
	return &Catalog{
		obstacles: map[Obstacle]Routine{
			// The low bar only clears a lowered arm.
			LowBar: {
				ArmStep(robot.RegionPickup),
				DriveStep(14, 0.6),
			},
			// Get the arm under the gate, lift it and drive through.
			Portcullis: {
				ArmStep(robot.RegionPickup),
				DriveStep(4, 0.4),
				ArmStep(robot.RegionApproach),
				DriveStep(6, 0.5),
				ArmStep(robot.RegionStore),
			},
			// Drive up to the plates, push them down with the wedge and
			// cross on them.
			ChevalDeFrise: {
				DriveStep(4, 0.4),
				DeployWedgeStep(),
				DriveStep(3, 0.5),
				RetractWedgeStep(),
				DriveStep(5, 0.6),
			},
			// Terrain obstacles slip the wheels, so these run on time.
			Moat: {
				DriveForStep(0.8, 2500*time.Millisecond),
			},
			Ramparts: {
				DriveForStep(0.7, 3*time.Second),
			},
			RockWall: {
				DriveForStep(0.8, 2500*time.Millisecond),
			},
			RoughTerrain: {
				DriveForStep(0.6, 3*time.Second),
			},
			// No mechanism can open these; reach the outer works only.
			Drawbridge: {
				DriveStep(4, 0.5),
			},
			SallyPort: {
				DriveStep(4, 0.5),
			},
		},
		goals: map[Position]Routine{
			1: {DriveStep(6, 0.6), TurnStep(60, 0.5), DriveStep(5, 0.5)},
			2: {DriveStep(5, 0.6), TurnStep(45, 0.5), DriveStep(6, 0.5)},
			3: {DriveStep(4, 0.6), TurnEncodersStep(15, 0.4), DriveStep(7, 0.5)},
			4: {DriveStep(4, 0.6), TurnEncodersStep(-15, 0.4), DriveStep(7, 0.5)},
			5: {DriveStep(6, 0.6), TurnStep(-60, 0.5), DriveStep(5, 0.5)},
		},
		score: Routine{
			ArmStep(robot.RegionApproach),
			EjectStep(time.Second),
			ArmStep(robot.RegionStore),
		},
	}
}

// Obstacle returns the routine that crosses o.
func (c *Catalog) Obstacle(o Obstacle) (Routine, bool) {
	r, ok := c.obstacles[o]
	return r, ok
}

// Goal returns the routine that drives from lane p to the goal.
func (c *Catalog) Goal(p Position) (Routine, bool) {
	r, ok := c.goals[p]
	return r, ok
}

// Score returns the scoring routine.
func (c *Catalog) Score() Routine {
	return c.score
}

// RoutineName returns the catalog name for a routine reference: an obstacle
// name or number, "goal-N" or "score".
func RoutineName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "score" {
		return name, nil
	}
	if rest, ok := strings.CutPrefix(name, "goal-"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return "", fmt.Errorf("unknown routine %q", name)
		}
		if !Position(n).Valid() {
			return "", fmt.Errorf("goal position %d out of range 1-5", n)
		}
		return name, nil
	}
	o, err := ParseObstacle(name)
	if err != nil {
		return "", fmt.Errorf("unknown routine %q", name)
	}
	return o.String(), nil
}

// Override replaces the routine with the given name; see RoutineName.
func (c *Catalog) Override(name string, r Routine) error {
	name, err := RoutineName(name)
	if err != nil {
		return err
	}
	if name == "score" {
		c.score = r
		return nil
	}
	if rest, ok := strings.CutPrefix(name, "goal-"); ok {
		n, _ := strconv.Atoi(rest)
		c.goals[Position(n)] = r
		return nil
	}
	o, _ := ParseObstacle(name)
	c.obstacles[o] = r
	return nil
}

// ApplySettings applies the routine overrides from the stored settings.
func (c *Catalog) ApplySettings(s robot.AutoSettings) error {
	var err error
	for name, specs := range s.Routines {
		r, perr := ParseRoutine(specs)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("routine %s: %w", name, perr))
			continue
		}
		err = multierr.Append(err, c.Override(name, r))
	}
	return err
}

// NamedRoutine is a catalog entry.
type NamedRoutine struct {
	Name    string
	Routine Routine
}

// All lists every routine: obstacles in id order, then goals, then score.
func (c *Catalog) All() []NamedRoutine {
	var all []NamedRoutine
	for _, o := range Obstacles() {
		if r, ok := c.obstacles[o]; ok {
			all = append(all, NamedRoutine{Name: o.String(), Routine: r})
		}
	}
	for p := Position(1); p <= 5; p++ {
		if r, ok := c.goals[p]; ok {
			all = append(all, NamedRoutine{Name: fmt.Sprintf("goal-%d", p), Routine: r})
		}
	}
	return append(all, NamedRoutine{Name: "score", Routine: c.score})
}
