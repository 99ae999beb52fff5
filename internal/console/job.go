package console

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"encbot/internal/progress"
)

// encRow is one resolution's progress inside a job card.
type encRow struct {
	resolution string
	status     string
	percent    float64
	eta        string
}

// hostRow is one upload host's state inside a job card.
type hostRow struct {
	host   string
	state  progress.HostState
	url    string
	reason string
}

type jobState struct {
	id     string
	name   string
	stage  progress.Stage
	status string
	err    error
	done   bool

	downloadPct float64
	speed       string
	encodes     []encRow
	hosts       []hostRow

	outputPath string
	bytes      int64

	spinner spinner.Model
	bar     bubblesprogress.Model

	logsRing []string
}

func newJobState(id, name string, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		id:          id,
		name:        name,
		stage:       progress.StageQueued,
		status:      "queued",
		downloadPct: -1,
		spinner:     sp,
		bar:         bar,
	}
}

func (js *jobState) setEncode(res, status string, pct float64, eta string) {
	for i := range js.encodes {
		if js.encodes[i].resolution == res {
			js.encodes[i].status = status
			js.encodes[i].percent = pct
			js.encodes[i].eta = eta
			return
		}
	}
	js.encodes = append(js.encodes, encRow{resolution: res, status: status, percent: pct, eta: eta})
}

func (js *jobState) setHost(host string, state progress.HostState, url, reason string) {
	for i := range js.hosts {
		if js.hosts[i].host == host {
			js.hosts[i].state = state
			js.hosts[i].url = url
			js.hosts[i].reason = reason
			return
		}
	}
	js.hosts = append(js.hosts, hostRow{host: host, state: state, url: url, reason: reason})
}
