package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusClient polls a running service's status endpoint.
type StatusClient struct {
	BaseURL string
	HTTP    *http.Client
}

// ServiceStatus mirrors the /api/status payload.
type ServiceStatus struct {
	Worker     string     `json:"worker"`
	Current    *QueuedJob `json:"current,omitempty"`
	QueueDepth int        `json:"queue_depth"`
	UptimeSecs float64    `json:"uptime_secs"`
}

// QueuedJob mirrors one /api/queue entry.
type QueuedJob struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Owner    int64   `json:"owner"`
	WaitSecs float64 `json:"wait_secs"`
}

func (c *StatusClient) get(path string, v any) error {
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	resp, err := client.Get(c.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Status fetches /api/status.
func (c *StatusClient) Status() (ServiceStatus, error) {
	var s ServiceStatus
	err := c.get("/api/status", &s)
	return s, err
}

// Queue fetches /api/queue.
func (c *StatusClient) Queue() ([]QueuedJob, error) {
	var q []QueuedJob
	err := c.get("/api/queue", &q)
	return q, err
}

type statusTickMsg time.Time

type statusPollMsg struct {
	status ServiceStatus
	queue  []QueuedJob
	err    error
}

// StatusModel is a read-only dashboard over a remote service.
type StatusModel struct {
	client *StatusClient
	styles Styles

	status ServiceStatus
	queue  []QueuedJob
	err    error
	loaded bool
	quit   bool
}

func NewStatusModel(client *StatusClient) StatusModel {
	return StatusModel{client: client, styles: defaultStyles()}
}

func (m StatusModel) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), statusTickCmd())
}

func statusTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

func (m StatusModel) pollCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.client.Status()
		if err != nil {
			return statusPollMsg{err: err}
		}
		q, err := m.client.Queue()
		return statusPollMsg{status: st, queue: q, err: err}
	}
}

func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case statusTickMsg:
		return m, tea.Batch(statusTickCmd(), m.pollCmd())
	case statusPollMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.queue = msg.queue
		}
	}
	return m, nil
}

func (m StatusModel) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("encbot"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(m.client.BaseURL + " • q: quit"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.styles.Faint.Render("connecting..."))
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("✗ " + m.err.Error()))
	default:
		workerStyle := m.styles.Faint
		if m.status.Worker == "running" {
			workerStyle = m.styles.Success
		}
		fmt.Fprintf(&b, "worker: %s   queued: %d   up: %s\n",
			workerStyle.Render(m.status.Worker),
			m.status.QueueDepth,
			(time.Duration(m.status.UptimeSecs) * time.Second).String())
		if cur := m.status.Current; cur != nil {
			fmt.Fprintf(&b, "\n%s %s\n",
				m.styles.StageEnc.Render("▶ "+cur.Kind),
				m.styles.JobTitle.Render(truncate(cur.Name, 60)))
		}
		if len(m.queue) > 0 {
			b.WriteString("\n" + m.styles.Subtitle.Render("queue:") + "\n")
			for i, j := range m.queue {
				fmt.Fprintf(&b, "  %2d. [%s] %s\n", i+1, j.Kind, truncate(j.Name, 56))
			}
		}
	}
	b.WriteString("\n")
	return b.String()
}
