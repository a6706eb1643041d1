package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cloudzz-dev/roomchat/internal/client/debug"
	"github.com/cloudzz-dev/roomchat/internal/client/link"
	"github.com/cloudzz-dev/roomchat/internal/client/profile"
	"github.com/cloudzz-dev/roomchat/internal/client/session"
	"github.com/cloudzz-dev/roomchat/internal/config"
)

// --- Styles ---

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	textColor      = lipgloss.Color("#F9FAFB")
	mutedColor     = lipgloss.Color("#9CA3AF")
	errorColor     = lipgloss.Color("#EF4444")
	warnColor      = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	ownMessageStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(primaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// --- View State ---

type viewState int

const (
	viewName viewState = iota
	viewChat
)

var emojiSet = []string{"😀", "😂", "👍", "🎉", "❤️", "🔥", "😮", "😢", "👀", "🚀"}

// --- Messages ---

type linkEventMsg struct {
	ev link.Event
}

func waitForLink(lk *link.Manager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-lk.Events()
		if !ok {
			return nil
		}
		return linkEventMsg{ev: ev}
	}
}

// --- Main Model ---

type model struct {
	ctrl *session.Controller
	lk   *link.Manager

	profileName string
	serverURL   string

	nameInput    textinput.Model
	msgInput     textinput.Model
	chatViewport viewport.Model

	view      viewState
	emojiOpen bool
	emojiIdx  int
	errText   string
	width     int
	height    int
}

func initialModel(ctrl *session.Controller, lk *link.Manager, profileName, serverURL, lastName string) model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Display name"
	nameInput.Focus()
	nameInput.CharLimit = 32
	nameInput.Width = 30
	nameInput.SetValue(lastName)

	msgInput := textinput.New()
	msgInput.Placeholder = "Type a message..."
	msgInput.CharLimit = 1000
	msgInput.Width = 50

	chatViewport := viewport.New(80, 20)

	return model{
		ctrl:         ctrl,
		lk:           lk,
		profileName:  profileName,
		serverURL:    serverURL,
		nameInput:    nameInput,
		msgInput:     msgInput,
		chatViewport: chatViewport,
		view:         viewName,
	}
}

// --- Init ---

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// --- Update ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The clear-confirm modal swallows everything until answered.
		if m.view == viewChat && m.ctrl.PendingClear() {
			switch msg.String() {
			case "y", "Y", "enter":
				m.ctrl.ConfirmClear()
			case "n", "N", "esc", "ctrl+c":
				m.ctrl.CancelClear()
			}
			return m, nil
		}

		if m.emojiOpen {
			switch msg.String() {
			case "left", "h":
				if m.emojiIdx > 0 {
					m.emojiIdx--
				}
				return m, nil
			case "right", "l":
				if m.emojiIdx < len(emojiSet)-1 {
					m.emojiIdx++
				}
				return m, nil
			case "enter":
				m.ctrl.InsertEmoji(emojiSet[m.emojiIdx])
				m.msgInput.SetValue(m.ctrl.Compose())
				m.msgInput.CursorEnd()
				m.emojiOpen = false
				return m, nil
			case "esc", "ctrl+e":
				m.emojiOpen = false
				return m, nil
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			m.ctrl.Close()
			return m, tea.Quit

		case "esc":
			if m.view == viewChat {
				m.ctrl.Close()
				return m, tea.Quit
			}

		case "ctrl+e":
			if m.view == viewChat {
				m.emojiOpen = true
				m.emojiIdx = 0
				return m, nil
			}

		case "ctrl+l":
			if m.view == viewChat {
				m.ctrl.RequestClear()
				return m, nil
			}

		case "enter":
			switch m.view {
			case viewName:
				if err := m.ctrl.ConfirmIdentity(m.nameInput.Value()); err != nil {
					m.errText = err.Error()
					return m, nil
				}
				// Best effort; the session works without a profile.
				_ = profile.Save(m.profileName, m.serverURL, m.ctrl.Identity())
				m.errText = ""
				m.view = viewChat
				m.nameInput.Blur()
				m.msgInput.Focus()
				return m, waitForLink(m.lk)

			case viewChat:
				m.ctrl.SetCompose(m.msgInput.Value())
				if err := m.ctrl.Send(); err != nil {
					m.errText = err.Error()
					return m, nil
				}
				m.errText = ""
				m.msgInput.SetValue("")
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = msg.Width - 4
		m.chatViewport.Height = msg.Height - 9
		m.refreshViewport()

	case linkEventMsg:
		m.ctrl.HandleLink(msg.ev)
		if _, ok := msg.ev.(link.ServerEvent); ok {
			m.refreshViewport()
		}
		return m, waitForLink(m.lk)
	}

	// Update the focused text input.
	var cmd tea.Cmd
	switch m.view {
	case viewName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case viewChat:
		m.msgInput, cmd = m.msgInput.Update(msg)
		m.ctrl.SetCompose(m.msgInput.Value())
	}
	return m, cmd
}

func (m *model) refreshViewport() {
	var content strings.Builder
	for msg := range m.ctrl.Timeline().All() {
		timestamp := "--:--"
		if !msg.BadStamp {
			timestamp = msg.SentAt.Local().Format("15:04")
		}
		style := otherMessageStyle
		if msg.Author == m.ctrl.Identity() {
			style = ownMessageStyle
		}
		line := fmt.Sprintf("%s %s: %s",
			mutedStyle.Render(timestamp),
			style.Render(msg.Author),
			msg.Body,
		)
		content.WriteString(line + "\n")
	}
	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// --- View ---

func (m model) View() string {
	switch m.view {
	case viewName:
		return m.nameView()
	case viewChat:
		return m.chatView()
	}
	return ""
}

func (m model) nameView() string {
	var s strings.Builder

	s.WriteString("\n\n")
	s.WriteString(titleStyle.Render("ROOMCHAT"))
	s.WriteString("\n\n")
	s.WriteString("  Pick a display name:\n")
	s.WriteString("  " + m.nameInput.View() + "\n\n")

	if m.errText != "" {
		s.WriteString(errorStyle.Render("  " + m.errText + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Enter to join • Ctrl+C to quit\n"))
	return s.String()
}

func (m model) statusLine() string {
	var state string
	switch m.ctrl.ConnState() {
	case link.Connected:
		state = selectedStyle.Render("● connected")
	case link.Connecting:
		state = noticeStyle.Render("◌ connecting...")
	default:
		state = errorStyle.Render("○ disconnected")
	}

	if notices := m.ctrl.Notices(); len(notices) > 0 {
		state += "  " + noticeStyle.Render(notices[len(notices)-1])
	}
	if m.errText != "" {
		state += "  " + errorStyle.Render(m.errText)
	}
	return state
}

func (m model) chatView() string {
	if m.ctrl.PendingClear() {
		prompt := modalStyle.Render(
			"Clear the shared history for everyone?\n\n" +
				helpStyle.Render("y to confirm • n to cancel"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, prompt)
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("💬 roomchat — %s", m.ctrl.Identity())))
	s.WriteString("\n")
	s.WriteString(m.statusLine())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", max(m.width-2, 0)))
	s.WriteString("\n")

	s.WriteString(m.chatViewport.View())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", max(m.width-2, 0)))
	s.WriteString("\n")

	if m.emojiOpen {
		var row strings.Builder
		for i, e := range emojiSet {
			if i == m.emojiIdx {
				row.WriteString(selectedStyle.Render("[" + e + "]"))
			} else {
				row.WriteString(" " + e + " ")
			}
		}
		s.WriteString(row.String())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("←/→ pick • Enter to insert • Esc to close"))
	} else {
		s.WriteString(m.msgInput.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Enter to send • Ctrl+E emoji • Ctrl+L clear history • Esc to leave"))
	}

	return s.String()
}

// --- Main ---

func main() {
	cfg := config.LoadClient()

	rootCmd := &cobra.Command{
		Use:          "roomchat",
		Short:        "Terminal client for the shared chat room",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	rootCmd.Flags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "websocket server URL")
	rootCmd.Flags().StringVar(&cfg.Profile, "profile", cfg.Profile, "profile name")
	rootCmd.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "write debug.log")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Client) error {
	logger := debug.NewLogger(cfg.Debug)

	lastName := ""
	if p := profile.Load(cfg.Profile); p != nil {
		lastName = p.Username
	}

	lk := link.New(cfg.ServerURL, logger)
	ctrl := session.New(lk, logger)
	defer ctrl.Close()

	p := tea.NewProgram(initialModel(ctrl, lk, cfg.Profile, cfg.ServerURL, lastName), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
