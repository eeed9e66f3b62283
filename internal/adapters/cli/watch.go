package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
)

const defaultWatchInterval = time.Second

// statusFetcher reads the live status; *grpc.DaemonClient satisfies it
type statusFetcher interface {
	Status(ctx context.Context) (grpc.StatusView, error)
}

type statusMsg struct {
	view grpc.StatusView
	err  error
}

type refreshMsg struct{}

// watchModel polls the daemon and redraws the status view
type watchModel struct {
	fetcher  statusFetcher
	interval time.Duration
	timeout  time.Duration

	view     grpc.StatusView
	err      error
	loaded   bool
	exitDone bool
}

func newWatchModel(fetcher statusFetcher, interval, timeout time.Duration, exitWhenDone bool) watchModel {
	return watchModel{fetcher: fetcher, interval: interval, timeout: timeout, exitDone: exitWhenDone}
}

func (m watchModel) Init() tea.Cmd {
	return m.fetch()
}

func (m watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		view, err := m.fetcher.Status(ctx)
		return statusMsg{view: view, err: err}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		}

	case statusMsg:
		m.view, m.err, m.loaded = msg.view, msg.err, true
		if m.err == nil && m.exitDone && isFinished(m.view.State) && m.view.SessionID != "" {
			return m, tea.Quit
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return refreshMsg{} })

	case refreshMsg:
		return m, m.fetch()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	switch {
	case !m.loaded:
		b.WriteString("Connecting to daemon...\n")
	case m.err != nil:
		b.WriteString(failedStyle.Render(fmt.Sprintf("Status unavailable: %v", m.err)))
		b.WriteString("\n")
		if m.view.State != "" {
			b.WriteString("\n")
			b.WriteString(renderStatus(m.view))
		}
	default:
		b.WriteString(renderStatus(m.view))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("refreshing every %s  r: refresh  q: quit", m.interval)))
	b.WriteString("\n")
	return b.String()
}

func isFinished(state string) bool {
	return state == "COMPLETED" || state == "ERROR" || state == "IDLE"
}

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	var (
		interval     time.Duration
		exitWhenDone bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the active session live",
		Long: `Open a live view of the daemon's gathering status.

Examples:
  gatherbot watch
  gatherbot watch --interval 500ms --exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := grpc.NewDaemonClient(daemonAddress)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			model := newWatchModel(client, interval, callTimeout, exitWhenDone)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				return fmt.Errorf("watch view failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Refresh interval")
	cmd.Flags().BoolVar(&exitWhenDone, "exit", false, "Exit once the session finishes")

	return cmd
}
