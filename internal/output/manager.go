package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

type JobOutput struct {
	ID          int
	URL         string
	Status      string
	Message     string
	StreamLines []string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	URL   string
	Error error
	Time  time.Time
}

// Manager tracks batch jobs and redraws their status while they run. When
// stdout is not a terminal it prints one line per finished job instead.
type Manager struct {
	outputs     map[int]*JobOutput
	mutex       sync.RWMutex
	numLines    int
	maxStreams  int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	jobCount    int
	displayWg   sync.WaitGroup
	live        bool
}

func NewManager() *Manager {
	return &Manager{
		outputs:     make(map[int]*JobOutput),
		maxStreams:  3,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
		live:        Out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (m *Manager) Register(url string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.jobCount++
	now := time.Now()
	m.outputs[m.jobCount] = &JobOutput{
		ID:          m.jobCount,
		URL:         url,
		Status:      "pending",
		StartTime:   now,
		LastUpdated: now,
	}
	return m.jobCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, ok := m.outputs[id]; ok {
		info.Message = message
		info.Status = "running"
		info.LastUpdated = time.Now()
	}
}

// AddStreamLine keeps the last few yt-dlp lines of a running job.
func (m *Manager) AddStreamLine(id int, line string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, ok := m.outputs[id]; ok && !info.Complete {
		info.StreamLines = append(info.StreamLines, line)
		if len(info.StreamLines) > m.maxStreams {
			info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
		}
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	info, ok := m.outputs[id]
	if ok {
		info.StreamLines = nil
		info.Message = message
		if message == "" {
			info.Message = "Completed " + info.URL
		}
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
	m.mutex.Unlock()
	if ok && !m.live {
		m.printLine(info)
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	info, ok := m.outputs[id]
	if ok {
		info.StreamLines = nil
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.Message = fmt.Sprintf("Failed %s", info.URL)
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{URL: info.URL, Error: err, Time: info.LastUpdated})
	}
	m.mutex.Unlock()
	if ok && !m.live {
		m.printLine(info)
	}
}

func (m *Manager) Status(id int) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if info, ok := m.outputs[id]; ok {
		return info.Status
	}
	return "unknown"
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func styledMessage(info *JobOutput) string {
	switch info.Status {
	case "success":
		return successStyle.Render(info.Message)
	case "error":
		return errorStyle.Render(info.Message)
	}
	return pendingStyle.Render(info.Message)
}

func (m *Manager) printLine(info *JobOutput) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	elapsed := info.LastUpdated.Sub(info.StartTime).Round(time.Second)
	fmt.Fprintf(Out, "  %s %s %s\n", statusIndicator(info.Status), debugStyle.Render(elapsed.String()), styledMessage(info))
}

func (m *Manager) sorted() []*JobOutput {
	jobs := make([]*JobOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, termHeight, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termHeight <= 0 {
		termHeight = 24
	}
	available := termHeight - 3

	if m.numLines > 0 {
		fmt.Fprintf(Out, "\033[%dA\033[J", m.numLines)
	}
	lineCount := 0
	for _, info := range m.sorted() {
		if lineCount >= available {
			break
		}
		end := time.Now()
		if info.Complete {
			end = info.LastUpdated
		}
		message := styledMessage(info)
		if info.Status == "pending" {
			message = pendingStyle.Render("Waiting...")
		}
		fmt.Fprintf(Out, "  %s %s %s\n", statusIndicator(info.Status), debugStyle.Render(end.Sub(info.StartTime).Round(time.Second).String()), message)
		lineCount++
		for _, line := range info.StreamLines {
			if lineCount >= available {
				break
			}
			fmt.Fprintf(Out, "      %s\n", streamStyle.Render(line))
			lineCount++
		}
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	if !m.live {
		return
	}
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

// StopDisplay stops redrawing and prints the summary.
func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
	m.ShowSummary()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var success, failures int
	for _, info := range m.outputs {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, "  "+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures == 0 {
		fmt.Fprintln(Out)
		return
	}
	fmt.Fprintln(Out, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, "  "+errorStyle.Bold(true).Render("Errors:"))
	for i, e := range m.errors {
		fmt.Fprintf(Out, "    %s %s %s\n",
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", e.Time.Format(time.TimeOnly))),
			errorStyle.Render(e.URL))
		fmt.Fprintf(Out, "      %s\n", errorStyle.Render(strings.TrimSpace(e.Error.Error())))
	}
	fmt.Fprintln(Out)
}

// Failures reports how many jobs ended in error.
func (m *Manager) Failures() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.errors)
}
