package cli

import (
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mermatic/mermatic/pkg/source"
	"github.com/mermatic/mermatic/pkg/template"
)

// templateCommand creates the template command. With a name it writes that
// template; without one it opens an interactive picker.
func (c *CLI) templateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template [name]",
		Short: "Write a diagram template to a file",
		Long: `Write one of the built-in diagram templates to a file as a starting
point. Valid names: ` + strings.Join(template.Names(), ", ") + `.

Without a name, an interactive picker is shown.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: template.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
				picked, err := pickTemplate()
				if err != nil {
					return err
				}
				if picked == "" {
					printInfo("No template selected")
					return nil
				}
				name = picked
			}

			text, err := template.Get(name)
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				out = name + source.Extension
			}
			if err := os.WriteFile(out, []byte(text), 0644); err != nil {
				return err
			}

			printSuccess("Created %s template", name)
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <name>"+source.Extension+")")

	return cmd
}

// pickTemplate runs the interactive template picker and returns the chosen
// name, or empty when the user quit without choosing.
func pickTemplate() (string, error) {
	final, err := tea.NewProgram(newTemplatePicker()).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(templatePicker)
	if !ok {
		return "", nil
	}
	return m.choice, nil
}

var (
	pickerSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	pickerNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
)

// templatePicker is the bubbletea model for interactive template selection.
type templatePicker struct {
	names  []string
	cursor int
	choice string
}

func newTemplatePicker() templatePicker {
	return templatePicker{names: template.Names()}
}

func (m templatePicker) Init() tea.Cmd {
	return nil
}

func (m templatePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "enter":
			m.choice = m.names[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m templatePicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Template"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, name := range m.names {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		// First line of the template as a preview.
		text, _ := template.Get(name)
		preview, _, _ := strings.Cut(text, "\n")

		line := cursor + name
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render(line))
		} else {
			b.WriteString(pickerNormalStyle.Render(line))
		}
		b.WriteString("  " + StyleDim.Render(preview))
		b.WriteString("\n")
	}

	return b.String()
}
