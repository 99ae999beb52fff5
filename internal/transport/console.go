package transport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"encbot/internal/logging"
)

// Console is a line-oriented Transport over stdin/stdout, used when the
// bot runs attached to a terminal and by integration tests. Every input
// line is attributed to the configured owner; "/file <path>" attaches a
// local file as a document.
type Console struct {
	owner int64
	out   io.Writer
	in    io.Reader

	mu      sync.Mutex
	nextID  atomic.Int64
	updates chan Update
	started sync.Once
}

// NewConsole builds a console transport attributing all input to owner.
func NewConsole(owner int64, in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{owner: owner, in: in, out: out, updates: make(chan Update, 16)}
}

func (c *Console) Send(chat int64, text string) (MessageRef, error) {
	id := c.nextID.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "--- [%d/%d] ---\n%s\n", chat, id, text)
	return MessageRef{Chat: chat, ID: id}, nil
}

func (c *Console) Edit(ref MessageRef, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "--- [%d/%d] (edit) ---\n%s\n", ref.Chat, ref.ID, text)
	return nil
}

func (c *Console) Delete(ref MessageRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "--- [%d/%d] (deleted) ---\n", ref.Chat, ref.ID)
	return nil
}

func (c *Console) SendDocument(chat int64, path, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "--- [%d] document %s ---\n%s\n", chat, path, caption)
	return nil
}

func (c *Console) SendVideo(chat int64, path string, width, height int, duration float64, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "--- [%d] video %s (%dx%d, %.0fs) ---\n%s\n", chat, path, width, height, duration, caption)
	return nil
}

// Updates starts the stdin pump on first call.
func (c *Console) Updates() <-chan Update {
	c.started.Do(func() {
		go c.pump()
	})
	return c.updates
}

func (c *Console) pump() {
	defer close(c.updates)
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		u := Update{Owner: c.owner}
		if rest, ok := strings.CutPrefix(line, "/file "); ok {
			path := strings.TrimSpace(rest)
			u.Document = &IncomingFile{Name: fileBase(path), Path: path}
		} else if rest, ok := strings.CutPrefix(line, "/cb "); ok {
			u.Callback = strings.TrimSpace(rest)
		} else {
			u.Text = line
		}
		c.updates <- u
	}
	if err := sc.Err(); err != nil {
		log := logging.WithComponent("console")
		log.Error().Err(err).Msg("stdin read failed")
	}
}

func fileBase(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
