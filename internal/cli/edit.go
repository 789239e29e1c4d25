package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/validate"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// gridStep is how far one keypress moves a node on the canvas.
const gridStep = 20

func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a workflow interactively in the terminal",
		Long: `Edit a workflow interactively in the terminal.

Nodes are listed with their connections; activation problems are shown live
after every change. Saving writes the file back in the form it was read
(definition or canvas).

Keys:
  ↑/↓ j/k      select node          shift+arrows  move node
  a            add node             d             delete node
  c            connect from node    x             remove an outgoing edge
  s            save                 q             quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			doc, err := c.load(path, cat)
			if err != nil {
				return err
			}
			store := workflow.Open(doc.Snapshot)
			save := func(snap *workflow.Snapshot) error {
				v, err := flowio.Encode(snap, doc.Format, cat, doc.Meta)
				if err != nil {
					return err
				}
				return flowio.ExportFile(path, v)
			}

			m := newEditModel(store, path, save)
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("editor: %w", err)
			}
			if fm, ok := final.(editModel); ok && fm.dirty {
				printWarning("Quit without saving %s", path)
			}
			return nil
		},
	}
}

// =============================================================================
// editModel - Interactive graph editor
// =============================================================================

type editMode int

const (
	modeNodes     editMode = iota // navigating nodes
	modePalette                   // choosing a node type to add
	modeConnect                   // choosing the target of a new edge
	modeCondition                 // choosing the condition of a new edge
	modeEdges                     // choosing an outgoing edge to remove
)

var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	editProblemStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// editModel is the bubbletea model of the edit command. All changes go
// through the store; the model only keeps cursors and the latest snapshot.
type editModel struct {
	store *workflow.Store
	path  string
	save  func(*workflow.Snapshot) error

	snap       *workflow.Snapshot
	nodes      []workflow.Node
	violations validate.Violations

	mode    editMode
	cursor  int
	pick    int // cursor inside the palette, condition or edge list
	palette []*catalog.Descriptor
	from    string // source of the edge being connected
	to      string // target of the edge being connected
	choices []workflow.ConditionKind

	status    string
	statusErr bool
	dirty     bool
	quitArmed bool
}

func newEditModel(store *workflow.Store, path string, save func(*workflow.Snapshot) error) editModel {
	m := editModel{
		store:   store,
		path:    path,
		save:    save,
		palette: store.Catalog().All(),
	}
	m.refresh()
	m.selectCursor()
	return m
}

// refresh reloads the snapshot and revalidates it.
func (m *editModel) refresh() {
	m.snap = m.store.Snapshot()
	m.nodes = m.snap.Nodes()
	m.violations = validate.Validate(m.snap, nil)
	if m.cursor >= len(m.nodes) {
		m.cursor = max(len(m.nodes)-1, 0)
	}
}

func (m *editModel) current() (workflow.Node, bool) {
	if len(m.nodes) == 0 {
		return workflow.Node{}, false
	}
	return m.nodes[m.cursor], true
}

func (m *editModel) selectCursor() {
	if n, ok := m.current(); ok {
		_ = m.store.SelectNode(n.ID)
	} else {
		m.store.ClearSelection()
	}
}

func (m *editModel) setStatus(format string, args ...any) {
	m.status, m.statusErr = fmt.Sprintf(format, args...), false
}

// apply reports the outcome of a store edit and refreshes on success.
func (m *editModel) apply(err error, format string, args ...any) {
	if err != nil {
		m.status, m.statusErr = ferrors.UserMessage(err), true
		return
	}
	m.dirty = true
	m.refresh()
	m.setStatus(format, args...)
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modePalette:
		m.updatePalette(key.String())
	case modeConnect:
		m.updateConnect(key.String())
	case modeCondition:
		m.updateCondition(key.String())
	case modeEdges:
		m.updateEdges(key.String())
	default:
		return m.updateNodes(key.String())
	}
	return m, nil
}

func (m editModel) updateNodes(key string) (tea.Model, tea.Cmd) {
	if key != "q" && key != "esc" {
		m.quitArmed = false
	}
	switch key {
	case "q", "esc":
		if m.dirty && !m.quitArmed {
			m.quitArmed = true
			m.setStatus("Unsaved changes. Press %s again to quit, s to save.", key)
			return m, nil
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.selectCursor()
		}
	case "down", "j":
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
			m.selectCursor()
		}
	case "shift+up", "K":
		m.move(0, -gridStep)
	case "shift+down", "J":
		m.move(0, gridStep)
	case "shift+left", "H":
		m.move(-gridStep, 0)
	case "shift+right", "L":
		m.move(gridStep, 0)
	case "a":
		m.mode, m.pick = modePalette, 0
	case "d", "delete":
		if n, ok := m.current(); ok {
			m.apply(m.store.RemoveNode(n.ID), "Deleted %s", n.ID)
			m.selectCursor()
		}
	case "c":
		n, ok := m.current()
		if !ok {
			break
		}
		if len(workflow.AllowedConditions(m.snap.Category(n.ID))) == 0 {
			m.status, m.statusErr = fmt.Sprintf("%s cannot have outgoing edges", n.Name), true
			break
		}
		m.mode, m.from = modeConnect, n.ID
		m.setStatus("Connect %s to…", n.ID)
	case "x":
		if n, ok := m.current(); ok && m.snap.OutDegree(n.ID) > 0 {
			m.mode, m.pick = modeEdges, 0
		}
	case "s":
		if err := m.save(m.snap); err != nil {
			m.status, m.statusErr = err.Error(), true
			break
		}
		m.dirty = false
		m.setStatus("Saved %s", m.path)
	}
	return m, nil
}

func (m *editModel) move(dx, dy float64) {
	n, ok := m.current()
	if !ok {
		return
	}
	pos := workflow.Position{X: n.Position.X + dx, Y: n.Position.Y + dy}
	m.apply(m.store.MoveNode(n.ID, pos), "Moved %s to (%g, %g)", n.ID, pos.X, pos.Y)
}

func (m *editModel) updatePalette(key string) {
	switch key {
	case "esc", "q":
		m.mode = modeNodes
	case "up", "k":
		if m.pick > 0 {
			m.pick--
		}
	case "down", "j":
		if m.pick < len(m.palette)-1 {
			m.pick++
		}
	case "enter":
		d := m.palette[m.pick]
		pos := workflow.Position{}
		if n, ok := m.current(); ok {
			pos = workflow.Position{X: n.Position.X + 10*gridStep, Y: n.Position.Y}
		}
		m.mode = modeNodes
		id, err := m.store.AddNode(d.ID, pos)
		m.apply(err, "Added %s", id)
		if err == nil {
			for i, n := range m.nodes {
				if n.ID == id {
					m.cursor = i
				}
			}
			m.selectCursor()
		}
	}
}

func (m *editModel) updateConnect(key string) {
	switch key {
	case "esc", "q":
		m.mode = modeNodes
		m.setStatus("")
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
		}
	case "enter":
		n, ok := m.current()
		if !ok {
			return
		}
		m.to = n.ID
		m.choices = workflow.AllowedConditions(m.snap.Category(m.from))
		if len(m.choices) == 1 {
			m.connect(m.choices[0])
			return
		}
		m.mode, m.pick = modeCondition, 0
	}
}

func (m *editModel) updateCondition(key string) {
	switch key {
	case "esc", "q":
		m.mode = modeNodes
		m.setStatus("")
	case "up", "k":
		if m.pick > 0 {
			m.pick--
		}
	case "down", "j":
		if m.pick < len(m.choices)-1 {
			m.pick++
		}
	case "enter":
		m.connect(m.choices[m.pick])
	}
}

func (m *editModel) connect(kind workflow.ConditionKind) {
	m.mode = modeNodes
	_, err := m.store.AddEdge(m.from, m.to, kind, nil)
	m.apply(err, "Connected %s → %s (%s)", m.from, m.to, kind)
	m.selectCursor()
}

func (m *editModel) updateEdges(key string) {
	n, ok := m.current()
	if !ok {
		m.mode = modeNodes
		return
	}
	out := m.snap.Outgoing(n.ID)
	switch key {
	case "esc", "q":
		m.mode = modeNodes
	case "up", "k":
		if m.pick > 0 {
			m.pick--
		}
	case "down", "j":
		if m.pick < len(out)-1 {
			m.pick++
		}
	case "enter", "x", "d":
		if m.pick < len(out) {
			e := out[m.pick]
			m.mode = modeNodes
			m.apply(m.store.RemoveEdge(e.ID), "Removed %s → %s", e.Source, e.Target)
		}
	}
}

// =============================================================================
// View
// =============================================================================

func (m editModel) View() string {
	var b strings.Builder

	title := StyleTitle.Render("flowgraph") + " " + StyleValue.Render(m.path)
	if m.dirty {
		title += StyleWarning.Render(" •")
	}
	b.WriteString(title + "  " + editDimStyle.Render(fmt.Sprintf("v%d · %d nodes · %d edges",
		m.store.Version(), m.snap.NodeCount(), m.snap.EdgeCount())))
	b.WriteString("\n\n")

	switch m.mode {
	case modePalette:
		b.WriteString(m.viewPalette())
	case modeCondition:
		b.WriteString(m.viewList("Condition for "+m.from+" → "+m.to, conditionNames(m.choices)))
	case modeEdges:
		n, _ := m.current()
		b.WriteString(m.viewList("Remove edge from "+n.ID, edgeNames(m.snap.Outgoing(n.ID))))
	default:
		b.WriteString(m.viewNodes())
		b.WriteString("\n")
		b.WriteString(m.viewEdges())
	}

	b.WriteString("\n")
	b.WriteString(m.viewViolations())
	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(StyleError.Render(iconError + " " + m.status))
		} else {
			b.WriteString(StyleSuccess.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(editDimStyle.Render(m.help()))
	return b.String()
}

func (m editModel) help() string {
	switch m.mode {
	case modePalette, modeCondition, modeEdges:
		return "↑/↓ choose  ⏎ confirm  esc cancel"
	case modeConnect:
		return "↑/↓ choose target  ⏎ connect  esc cancel"
	}
	return "↑/↓ select  shift+arrows move  a add  d delete  c connect  x unlink  s save  q quit"
}

func (m editModel) viewNodes() string {
	if len(m.nodes) == 0 {
		return editDimStyle.Render("  empty workflow, press a to add a node") + "\n"
	}
	problems := violationsByNode(m.violations)
	rows := make([][]string, len(m.nodes))
	for i, n := range m.nodes {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := ""
		if _, bad := problems[n.ID]; bad {
			mark = iconWarning
		}
		if !n.Required {
			mark += "?"
		}
		rows[i] = []string{
			cursor, n.ID, n.Name, string(m.snap.Category(n.ID)),
			fmt.Sprintf("%g,%g", n.Position.X, n.Position.Y),
			fmt.Sprint(m.snap.InDegree(n.ID)), fmt.Sprint(m.snap.OutDegree(n.ID)), mark,
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "ID", "Name", "Category", "Position", "In", "Out", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if row >= len(m.nodes) {
				return lipgloss.NewStyle()
			}
			n := m.nodes[row]
			switch {
			case m.mode == modeConnect && n.ID == m.from:
				return editDimStyle
			case row == m.cursor:
				return editSelectedStyle
			case problems[n.ID] != "":
				return editProblemStyle
			}
			return editNormalStyle
		}).
		Render() + "\n"
}

func (m editModel) viewEdges() string {
	n, ok := m.current()
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, e := range m.snap.Incoming(n.ID) {
		b.WriteString(editDimStyle.Render(fmt.Sprintf("  %s → %s  %s", e.Source, e.Target, edgeCaption(e))) + "\n")
	}
	for _, e := range m.snap.Outgoing(n.ID) {
		b.WriteString(editNormalStyle.Render(fmt.Sprintf("  %s → %s  %s", e.Source, e.Target, edgeCaption(e))) + "\n")
	}
	if b.Len() == 0 {
		return editDimStyle.Render("  no connections") + "\n"
	}
	return b.String()
}

func (m editModel) viewPalette() string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render("Add node") + "\n")
	for i, d := range m.palette {
		line := fmt.Sprintf("%-14s %-22s %s", d.Category, d.Name, d.ID)
		if i == m.pick {
			b.WriteString(editSelectedStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(editNormalStyle.Render("  "+line) + "\n")
		}
	}
	return b.String()
}

func (m editModel) viewList(title string, items []string) string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(title) + "\n")
	for i, item := range items {
		if i == m.pick {
			b.WriteString(editSelectedStyle.Render("▸ "+item) + "\n")
		} else {
			b.WriteString(editNormalStyle.Render("  "+item) + "\n")
		}
	}
	return b.String()
}

func (m editModel) viewViolations() string {
	if len(m.violations) == 0 {
		return StyleSuccess.Render(iconSuccess+" activatable") + "\n"
	}
	const shown = 5
	var b strings.Builder
	b.WriteString(StyleWarning.Render(fmt.Sprintf("%s %s", iconWarning, plural(len(m.violations), "violation"))) + "\n")
	for i, v := range m.violations {
		if i == shown {
			b.WriteString(editDimStyle.Render(fmt.Sprintf("  … %d more", len(m.violations)-shown)) + "\n")
			break
		}
		b.WriteString(editDimStyle.Render("  "+v.String()) + "\n")
	}
	return b.String()
}

func edgeCaption(e workflow.Edge) string {
	if e.Label != "" {
		return fmt.Sprintf("[%s] %s", e.Condition, e.Label)
	}
	return "[" + string(e.Condition) + "]"
}

func conditionNames(ks []workflow.ConditionKind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}

func edgeNames(es []workflow.Edge) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = fmt.Sprintf("%s → %s  %s", e.Source, e.Target, edgeCaption(e))
	}
	return out
}
