package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/frcbot/pkg/auto"
	"github.com/gwillem/frcbot/pkg/rig"
	"github.com/gwillem/frcbot/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	SkipRig bool `long:"skip-rig" description:"Only choose the autonomous routine"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("frcbot Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}

	if !c.SkipRig {
		// Step 1: Find the rig
		port, servos, ok := findRig()
		if ok {
			cfg.Rig.Port = port

			// Step 2: Calibrate its joints
			fmt.Println()
			fmt.Println(subHeaderStyle.Render("━━━ Calibrating Rig ━━━"))
			fmt.Println()
			cal, err := calibrateRig(port, servos, cfg.Rig.Calibration)
			if err != nil {
				return err
			}
			cfg.Rig.Calibration = cal

			// Save after calibration
			if err := cfg.SaveTo(opts.Config); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
		}
	}

	// Step 3: Choose the routine
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Autonomous Routine ━━━"))
	fmt.Println()
	sel, err := chooseSelection(auto.SelectionFromSettings(cfg.Auto))
	if err != nil {
		return err
	}
	settings := sel.Settings()
	settings.Hz = cfg.Auto.Hz
	settings.Routines = cfg.Auto.Routines
	cfg.Auto = settings

	// Save final config
	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Try it with: " + headerStyle.Render("frcbot simulate"))

	return nil
}

func findRig() (string, []feetech.FoundServo, bool) {
	fmt.Println("Scanning for the bench rig...")
	fmt.Println()

	found, err := rig.Scan(context.Background(), nil)
	if err != nil {
		fmt.Printf("Error scanning: %v\n", err)
		return "", nil, false
	}

	switch len(found) {
	case 0:
		fmt.Println("No rig found (servo IDs 1-5 on one bus).")
		fmt.Println("Continuing without one; 'frcbot simulate' does not need it.")
		return "", nil, false
	case 1:
		fmt.Printf("  Found rig on %s\n", found[0].Port)
		return found[0].Port, found[0].Servos, true
	}

	// Wiggle each arm joint in turn so the rigs can be told apart
	var options []huh.Option[int]
	for i, f := range found {
		wiggleArm(f)
		options = append(options, huh.NewOption(fmt.Sprintf("%s (rig #%d to wiggle)", f.Port, i+1), i))
	}
	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which rig should be used?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return found[choice].Port, found[choice].Servos, true
}

func wiggleArm(f rig.Found) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     f.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		fmt.Printf("  Error opening %s: %v\n", f.Port, err)
		return
	}
	defer bus.Close()

	armID := robot.DefaultRigCalibration()[robot.ArmJoint].ID
	var servo *feetech.Servo
	for _, s := range f.Servos {
		if s.ID == armID {
			servo = feetech.NewServo(bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return
	}

	ctx := context.Background()
	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return
	}
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return
	}

	fmt.Printf("  Wiggling arm on %s...\n", f.Port)

	// Wiggle: single gentle, slow movement
	wiggleAmount := 30
	moveTimeMs := 500
	for _, pos := range []int{originalPos + wiggleAmount, originalPos - wiggleAmount, originalPos} {
		servo.SetPositionWithTime(ctx, pos, moveTimeMs)
		time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	}
	servo.Disable(ctx)
}

func calibrateRig(port string, found []feetech.FoundServo, saved robot.Calibration) (robot.Calibration, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to rig: %w", err)
	}
	defer bus.Close()

	// Create servos map by ID
	servoMap := make(map[int]*feetech.Servo)
	for _, s := range found {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so the joints can be moved by hand
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	joints := robot.AllJoints()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move the arm and wedge joints between their end stops.")
	fmt.Println("Turn the wheel joints to both ends of the range they should use.")
	fmt.Println()

	curPositions := make(map[robot.JointName]int)
	minPositions := make(map[robot.JointName]int)
	maxPositions := make(map[robot.JointName]int)
	for i, name := range joints {
		pos, _ := servoMap[i+1].Position(ctx)
		curPositions[name] = pos
		minPositions[name] = pos
		maxPositions[name] = pos
	}

	model := newCalibrationModel(joints, servoMap, curPositions, minPositions, maxPositions)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("run calibration: %w", err)
	}
	cm := finalModel.(calibrationModel)

	calibration := saved.WithRanges(cm.minPositions, cm.maxPositions)

	fmt.Println()
	fmt.Println("Rig calibrated.")
	return calibration, nil
}

func chooseSelection(sel auto.Selection) (auto.Selection, error) {
	var positions []huh.Option[int]
	for p := 1; p <= 5; p++ {
		positions = append(positions, huh.NewOption(strconv.Itoa(p), p))
	}
	var obstacles []huh.Option[int]
	for _, o := range auto.Obstacles() {
		obstacles = append(obstacles, huh.NewOption(o.String(), int(o)))
	}

	position, obstacle, score := int(sel.Position), int(sel.Obstacle), sel.AttemptScore
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Starting position").
				Description("Lane 1 is next to the low bar").
				Options(positions...).
				Value(&position),
			huh.NewSelect[int]().
				Title("Obstacle").
				Options(obstacles...).
				Value(&obstacle),
			huh.NewConfirm().
				Title("Drive to the goal and score?").
				Value(&score),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	return auto.Selection{
		Position:     auto.Position(position),
		Obstacle:     auto.Obstacle(obstacle),
		AttemptScore: score,
	}, nil
}

// Calibration TUI model
type calibrationModel struct {
	joints       []robot.JointName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.JointName]int
	minPositions map[robot.JointName]int
	maxPositions map[robot.JointName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	joints []robot.JointName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.JointName]int,
) calibrationModel {
	return calibrationModel{
		joints:       joints,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, name := range m.joints {
			pos, err := m.servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[name] = pos
			m.minPositions[name] = min(m.minPositions[name], pos)
			m.maxPositions[name] = max(m.maxPositions[name], pos)
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableJointStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.joints))
	ranges := make([]int, 0, len(m.joints))
	for _, name := range m.joints {
		rangeSize := m.maxPositions[name] - m.minPositions[name]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(name),
			strconv.Itoa(m.curPositions[name]),
			strconv.Itoa(m.minPositions[name]),
			strconv.Itoa(m.maxPositions[name]),
			strconv.Itoa(rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Joint", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableJointStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
