package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwekke/ai-cli/internal/proto"
	"github.com/jwekke/ai-cli/internal/stream"
)

// connectedMsg is sent once the request has a response, or failed.
type connectedMsg struct{}

// connectModel is the Bubble Tea model shown on stderr while the request is
// being established.
type connectModel struct {
	spinner  spinner.Model
	label    string
	done     bool
	canceled bool
}

func newConnectModel(label string, s styles) connectModel {
	return connectModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(s.Spinner),
		),
		label: label,
	}
}

// Init implements tea.Model.
func (m connectModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m connectModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.spinner.View() + " " + m.label + "..."
}

type connection struct {
	body io.ReadCloser
	err  error
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close() //nolint:wrapcheck
}

// connect sends the request, showing a spinner on stderr until the response
// starts.
func connect(ctx context.Context, cfg *Config, client stream.Client, req proto.Request) (io.ReadCloser, error) {
	if cfg.Quiet || !isErrTTY() {
		return client.Stream(ctx, req) //nolint:wrapcheck
	}

	ctx, cancel := context.WithCancel(ctx)
	p := tea.NewProgram(
		newConnectModel(cfg.StatusText, stderrStyles()),
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	)

	done := make(chan connection, 1)
	go func() {
		body, err := client.Stream(ctx, req)
		done <- connection{body, err}
		p.Send(connectedMsg{})
	}()

	m, err := p.Run()
	if err != nil {
		logger.Debug("spinner failed", "err", err)
	} else if m.(connectModel).canceled {
		cancel()
	}

	conn := <-done
	if conn.err != nil {
		cancel()
		return nil, conn.err
	}
	if err := ctx.Err(); err != nil {
		_ = conn.body.Close()
		cancel()
		return nil, err //nolint:wrapcheck
	}
	return cancelBody{conn.body, cancel}, nil
}
