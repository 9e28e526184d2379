package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/reading"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// snapshotMsg wraps a controller state snapshot.
type snapshotMsg reading.Snapshot

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	controller *reading.Controller
	hub        *reading.SignalHub
	snapshots  chan reading.Snapshot
	reading    *models.Reading

	snap     reading.Snapshot
	width    int
	height   int
	ready    bool
	quitting bool

	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a viewer for one reading. snapshots must be the channel
// the controller's OnUpdate feeds.
func NewModel(ctx context.Context, controller *reading.Controller, hub *reading.SignalHub, snapshots chan reading.Snapshot, r *models.Reading) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = styles.phase

	return &Model{
		ctx:        ctx,
		controller: controller,
		hub:        hub,
		snapshots:  snapshots,
		reading:    r,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the spinner and begins listening for controller snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.awaitSnapshot())
}

// awaitSnapshot re-emits the next controller snapshot as a tea message.
func (m *Model) awaitSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := len(m.reading.Cards) + 5
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - headerHeight
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case snapshotMsg:
		wasAtBottom := m.viewport.AtBottom()
		m.snap = reading.Snapshot(msg)
		if m.ready {
			m.viewport.SetContent(m.snap.Narrative)
			if wasAtBottom {
				m.viewport.GotoBottom()
			}
		}
		return m, m.awaitSnapshot()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		// Quitting is a pause, not a cancel: the persisted cursor lets the
		// next invocation resume this narrative.
		m.quitting = true
		m.hub.BecameHidden()
		return m, tea.Quit

	case key.Matches(msg, m.keys.pause):
		m.hub.BecameHidden()
		return m, nil

	case key.Matches(msg, m.keys.resume):
		m.hub.BecameVisible()
		return m, nil

	case key.Matches(msg, m.keys.cancel):
		m.controller.Cancel(m.ctx)
		return m, nil

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the card header, phase line, narrative viewport, and help.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	spread, _ := models.SpreadByKey(m.reading.SpreadKey)
	b.WriteString(styles.title.Render(spread.Name))
	b.WriteString("\n")
	for _, card := range m.reading.Cards {
		name := styles.card.Render(card.Name)
		if card.Orientation == models.Reversed {
			name = name + " " + styles.reversed.Render("(reversed)")
		}
		b.WriteString(fmt.Sprintf("  %s — %s\n", spread.PositionLabel(card.Position), name))
	}
	b.WriteString("\n")
	b.WriteString(m.phaseLine())
	b.WriteString("\n")

	if m.ready {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	if m.snap.Message != "" {
		style := styles.ambient
		if m.snap.Phase == reading.PhaseError {
			style = styles.err
		}
		b.WriteString(style.Render(m.snap.Message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) phaseLine() string {
	switch {
	case m.snap.StreamActive:
		return fmt.Sprintf("%s %s", m.spinner.View(), styles.phase.Render(phaseLabel(m.snap.Phase)))
	case m.snap.Phase == reading.PhaseComplete:
		return styles.phase.Render("Your reading is complete.")
	case m.snap.Phase == reading.PhaseError:
		return styles.err.Render("The narrative could not be finished.")
	case m.snap.Phase == reading.PhaseIdle:
		return styles.ambient.Render("No narrative in progress.")
	default:
		return styles.ambient.Render("Paused — press r to resume.")
	}
}

func phaseLabel(p reading.Phase) string {
	switch p {
	case reading.PhaseAnalyzing:
		return "Reading the cards..."
	case reading.PhaseDrafting:
		return "Writing your narrative..."
	case reading.PhasePolishing:
		return "Polishing..."
	default:
		return ""
	}
}
