package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/frcbot/pkg/auto"
)

type CatalogCommand struct{}

func (c *CatalogCommand) Execute(args []string) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	headerCellStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	overrideStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	custom := map[string]bool{}
	for name := range cfg.Auto.Routines {
		if canonical, err := auto.RoutineName(name); err == nil {
			custom[canonical] = true
		}
	}

	var rows [][]string
	var overridden []bool
	for _, nr := range catalog.All() {
		for i, step := range nr.Routine.Names() {
			name := ""
			if i == 0 {
				name = nr.Name
			}
			rows = append(rows, []string{name, strconv.Itoa(i + 1), step})
			overridden = append(overridden, custom[nr.Name])
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Routine", "Step", "Action").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case col == 0 && row >= 0 && row < len(overridden) && overridden[row]:
				return overrideStyle
			case col == 0:
				return nameStyle
			default:
				return cellStyle
			}
		})

	fmt.Println(headerStyle.Render("Autonomous routines"))
	fmt.Println(t.Render())
	if len(cfg.Auto.Routines) > 0 {
		var names []string
		for name := range cfg.Auto.Routines {
			names = append(names, name)
		}
		slices.Sort(names)
		fmt.Println(dimStyle.Render("Overridden in " + opts.Config + ": " + strings.Join(names, ", ")))
	}
	return nil
}
