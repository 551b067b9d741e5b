package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promanager/internal/board"
)

// App is the root Bubble Tea model.
type App struct {
	board   *board.Board
	changes <-chan struct{}
	stop    func()

	width  int
	height int

	activeView viewState
	showHelp   bool

	login    loginModel
	kanban   kanbanModel
	projects projectsModel
	reports  reportsModel
	agenda   agendaModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(b *board.Board) App {
	h := help.New()
	h.ShowAll = false

	ch, stop := b.Watch()
	view := viewLogin
	if b.Actor() != nil {
		view = viewBoard
	}

	return App{
		board:      b,
		changes:    ch,
		stop:       stop,
		activeView: view,
		login:      newLoginModel(b),
		kanban:     newKanbanModel(b),
		projects:   newProjectsModel(b),
		reports:    newReportsModel(b),
		agenda:     newAgendaModel(b),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.waitForChange()}
	if a.activeView == viewLogin {
		cmds = append(cmds, a.login.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) waitForChange() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		<-ch
		return boardChangedMsg{}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // tabs + status + help
		a.kanban.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.agenda.setSize(a.width, contentHeight)
		a.login.setSize(a.width, a.height)
		return a, nil

	case boardChangedMsg:
		return a, a.waitForChange()

	case signedInMsg:
		a.activeView = viewBoard
		a.status = "signed in as " + a.actorLabel()
		a.statusErr = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case taskMutatedMsg:
		a.status = msg.verb + ": " + msg.task.Title
		a.statusErr = false
		return a, nil

	case errMsg:
		a.status = msg.err.Error()
		a.statusErr = true
		return a, nil

	case tea.KeyMsg:
		if a.activeView == viewLogin {
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.stop()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.TabBoard):
			a.activeView = viewBoard
			return a, nil
		case key.Matches(msg, keys.TabProj):
			a.activeView = viewProjects
			return a, nil
		case key.Matches(msg, keys.TabRep):
			a.activeView = viewReports
			return a, nil
		case key.Matches(msg, keys.TabAgnd):
			a.activeView = viewAgenda
			return a, nil
		case key.Matches(msg, keys.Tab):
			switch a.activeView {
			case viewBoard:
				a.activeView = viewProjects
			case viewProjects:
				a.activeView = viewReports
			case viewReports:
				a.activeView = viewAgenda
			default:
				a.activeView = viewBoard
			}
			return a, nil
		}
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewLogin:
		a.login, cmd = a.login.update(msg)
	case viewBoard:
		a.kanban, cmd = a.kanban.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewAgenda:
		a.agenda, cmd = a.agenda.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewBoard:
		return a.kanban.formActive
	case viewProjects:
		return a.projects.formActive
	}
	return false
}

func (a App) actorLabel() string {
	actor := a.board.Actor()
	if actor == nil {
		return ""
	}
	name := actor.Username
	if name == "" {
		name = actor.Email
	}
	return name + " (" + string(actor.Role) + ")"
}

func (a App) View() string {
	if a.activeView == viewLogin {
		return a.login.view()
	}

	var tabs []string
	for v := viewBoard; v <= viewAgenda; v++ {
		st := inactiveTabStyle
		if v == a.activeView {
			st = activeTabStyle
		}
		tabs = append(tabs, st.Render(viewNames[v]))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...) +
		"  " + mutedStyle.Render(a.actorLabel())

	var body string
	switch a.activeView {
	case viewBoard:
		body = a.kanban.view()
	case viewProjects:
		body = a.projects.view()
	case viewReports:
		body = a.reports.view()
	case viewAgenda:
		body = a.agenda.view()
	}

	statusLine := ""
	if a.status != "" {
		if a.statusErr {
			statusLine = statusErrStyle.Render(a.status)
		} else {
			statusLine = statusOKStyle.Render(a.status)
		}
	}

	parts := []string{header, body, statusLine, a.help.View(keys)}
	return strings.Join(parts, "\n")
}
