package auto

import (
	"go.uber.org/zap"
)

// Stage is the top level of the autonomous run.
type Stage int

const (
	StageObstacle Stage = iota + 1
	StageGoal
	StageScore
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageObstacle:
		return "obstacle"
	case StageGoal:
		return "goal"
	case StageScore:
		return "score"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// SequencerState holds the step counters. Each starts at 1 and only ever
// advances by one when the step it points at completes.
type SequencerState struct {
	Main     int
	Obstacle int
	Goal     int
	Score    int
}

// Sequencer runs the autonomous routines one tick at a time.
type Sequencer struct {
	mech    Mechanisms
	catalog *Catalog
	logger  *zap.SugaredLogger

	state  SequencerState
	warned map[string]bool
}

// NewSequencer creates a sequencer with every counter at 1. It does not touch
// the mechanisms; call ResetAllCounters when the autonomous period begins. A
// nil catalog uses DefaultCatalog.
func NewSequencer(mech Mechanisms, catalog *Catalog, logger *zap.SugaredLogger) *Sequencer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sequencer{
		mech:    mech,
		catalog: catalog,
		logger:  logger,
		state:   SequencerState{Main: 1, Obstacle: 1, Goal: 1, Score: 1},
		warned:  make(map[string]bool),
	}
}

// ResetAllCounters starts a new run: every counter goes back to 1, the drive
// sensors are zeroed and the drivetrain shifts to low gear. Call it once when
// the autonomous period begins.
func (s *Sequencer) ResetAllCounters() {
	s.state = SequencerState{Main: 1, Obstacle: 1, Goal: 1, Score: 1}
	s.warned = make(map[string]bool)
	s.mech.Drive.ResetSensors()
	s.mech.Drive.SetLowGear()
}

// State returns a copy of the counters.
func (s *Sequencer) State() SequencerState {
	return s.state
}

// Stage returns the stage the main counter points at for sel.
func (s *Sequencer) Stage(sel Selection) Stage {
	switch s.state.Main {
	case 1:
		return StageObstacle
	case 2:
		if sel.AttemptScore {
			return StageGoal
		}
	case 3:
		return StageScore
	}
	return StageDone
}

// Done reports whether the run has finished.
func (s *Sequencer) Done(sel Selection) bool {
	return s.Stage(sel) == StageDone
}

// Tick advances the run by at most one step. It never blocks.
func (s *Sequencer) Tick(sel Selection) {
	var done bool
	stage := s.Stage(sel)
	switch stage {
	case StageObstacle:
		routine, ok := s.catalog.Obstacle(sel.Obstacle)
		if !ok {
			s.warnOnce("obstacle", "unknown obstacle, autonomous stalled", "obstacle", sel.Obstacle)
			return
		}
		done = s.run(stage, routine, &s.state.Obstacle)
	case StageGoal:
		routine, ok := s.catalog.Goal(sel.Position)
		if !ok {
			s.warnOnce("position", "unknown position, autonomous stalled", "position", int(sel.Position))
			return
		}
		done = s.run(stage, routine, &s.state.Goal)
	case StageScore:
		done = s.run(stage, s.catalog.Score(), &s.state.Score)
	default:
		return
	}
	if done {
		s.state.Main++
		s.logger.Infow("stage complete", "routine", stage.String(), "next", s.Stage(sel).String())
		if s.Done(sel) {
			s.logger.Infow("autonomous complete", "selection", sel.String())
		}
	}
}

// run executes the step counter points at and reports whether the whole
// routine has completed.
func (s *Sequencer) run(stage Stage, routine Routine, counter *int) bool {
	if *counter > len(routine) {
		return true
	}
	step := routine[*counter-1]
	if !step.Run(s.mech) {
		return false
	}
	s.completeStep()
	s.logger.Infow("step complete", "routine", stage.String(), "step", *counter, "name", step.Name)
	*counter++
	return *counter > len(routine)
}

// completeStep leaves the robot stopped with fresh sensor baselines for the
// next step.
func (s *Sequencer) completeStep() {
	s.mech.Drive.Stop()
	s.mech.Drive.ResetSensors()
	s.mech.Arm.Stop()
}

func (s *Sequencer) warnOnce(key, msg string, keysAndValues ...any) {
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.logger.Warnw(msg, keysAndValues...)
}
