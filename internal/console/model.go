// Package console renders a live terminal dashboard for running jobs:
// download progress, per-resolution encode rows, and upload host fanout.
package console

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"encbot/internal/progress"
)

// ViewSource supplies the active job's dashboard state, when one exists.
type ViewSource func() (progress.View, bool)

type tickMsg time.Time

type Model struct {
	source ViewSource

	jobOrder []string
	jobs     map[string]*jobState

	width, height int
	styles        Styles

	// Reporter events arrive here and become tea messages.
	eventCh chan tea.Msg
	quit    bool
}

// NewModel builds a dashboard. source may be nil when only reporter
// events drive the display.
func NewModel(source ViewSource) Model {
	return Model{
		source:  source,
		jobs:    make(map[string]*jobState),
		styles:  defaultStyles(),
		eventCh: make(chan tea.Msg, 256),
	}
}

// Reporter returns a progress.Reporter that feeds this dashboard. Pass
// it to the pipeline service before starting the program.
func (m Model) Reporter() progress.Reporter {
	return teaReporter{ch: m.eventCh}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenEventsCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tickMsg:
		if m.source != nil {
			if v, ok := m.source(); ok {
				m.foldView(v)
			}
		}
		return m, tea.Batch(tickCmd(), m.componentCmds(msg))

	case jobUpdateMsg:
		u := msg.U
		js := m.job(u.JobID, u.Message)
		switch u.Stage {
		case progress.StageDownloading:
			js.stage = u.Stage
			js.downloadPct = u.Percent
			if u.Speed != nil {
				js.speed = *u.Speed
			}
		case progress.StageEncoding:
			js.stage = u.Stage
			eta := ""
			if u.ETA != nil {
				eta = u.ETA.String()
			}
			status := u.Message
			if status == "" {
				status = "encoding"
			}
			js.setEncode(u.Resolution, status, u.Percent, eta)
		default:
			js.stage = u.Stage
			if u.Message != "" {
				js.status = u.Message
			}
		}

	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 200 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}

	case jobResultMsg:
		r := msg.R
		js := m.job(r.JobID, "")
		js.done = true
		js.err = r.Err
		if r.Err == nil {
			js.stage = progress.StageCompleted
			js.outputPath = r.OutputPath
			js.bytes = r.Bytes
			js.status = "done"
		} else {
			js.stage = progress.StageError
			js.status = r.Err.Error()
		}

	case allDoneMsg:
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	if c := m.componentCmds(msg); c != nil {
		cmds = append(cmds, c)
	}
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

// foldView merges a polled snapshot into the per-job state, which keeps
// host fanout rows current even though uploads run detached.
func (m *Model) foldView(v progress.View) {
	js := m.job(v.JobID, v.Filename)
	js.stage = v.Stage
	js.downloadPct = v.Download.Percent
	js.speed = v.Download.Speed
	for _, e := range v.Encodes {
		js.setEncode(e.Resolution, e.Status, e.Percent, e.ETA)
	}
	for _, rows := range v.Uploads {
		for _, h := range rows {
			js.setHost(h.Host, h.State, h.URL, h.Reason)
		}
	}
}

func (m *Model) job(id, name string) *jobState {
	if js, ok := m.jobs[id]; ok {
		if js.name == "" && name != "" {
			js.name = name
		}
		return js
	}
	js := newJobState(id, name, m.styles)
	m.jobs[id] = &js
	m.jobOrder = append(m.jobOrder, id)
	return m.jobs[id]
}

func (m Model) componentCmds(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventCh
	}
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.ch <- jobResultMsg{R: res}
}

// Done signals the dashboard to exit once pending events drain.
func (m Model) Done() {
	m.eventCh <- allDoneMsg{}
}
