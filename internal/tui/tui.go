// Package tui is the interactive terminal front end for a task board.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/currentuser"
	"github.com/amonks/taskboard/internal/clock"
	"github.com/amonks/taskboard/store"
)

type tabKind int

const (
	tabUsers tabKind = iota
	tabBoards
	tabHistory
)

var tabLabels = []string{"[1] Users", "[2] Boards", "[3] History"}

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
	focusFilter
)

type statusLevel int

const (
	statusNone statusLevel = iota
	statusInfo
	statusError
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalConfirm
)

type confirmModal struct {
	kind        modalKind
	action      opKind
	targetID    string
	message     string
	confirmText string
	cancelText  string
	selected    int
}

// Options configures Run.
type Options struct {
	APIURL     string
	HTTPClient *http.Client
	Session    *currentuser.Session
	Logger     *slog.Logger

	// QuietPeriod is the filter debounce delay. Zero means the default.
	QuietPeriod time.Duration
	Clock       clock.Clock
}

type model struct {
	ctx         context.Context
	session     *currentuser.Session
	stores      *store.Set
	taskHistory *store.History
	logger      *slog.Logger
	queries     *queryBox
	notices     chan string
	quietPeriod time.Duration
	clock       clock.Clock

	width       int
	height      int
	activeTab   tabKind
	focus       focusPane
	userList    list.Model
	boardList   list.Model
	historyView viewport.Model
	board       *boardView
	form        *formModel
	picker      *memberPicker
	modal       confirmModal
	status      string
	statusLevel statusLevel
}

// Run starts the UI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Session == nil {
		return errors.New("tui: session is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notices := make(chan string, 32)
	notifier := api.NotifierFunc(func(message string) {
		select {
		case notices <- message:
		default:
			logger.Warn("dropping notice", "message", message)
		}
	})

	clientOpts := []api.Option{api.WithNotifier(notifier), api.WithLogger(logger)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	client := api.NewClient(opts.APIURL, clientOpts...)

	m := newModel(ctx, client, opts, notices)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if fm, ok := final.(model); ok {
		fm.closeBoard()
	}
	return err
}

func newModel(ctx context.Context, client *api.Client, opts Options, notices chan string) model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	return model{
		ctx:         ctx,
		session:     opts.Session,
		stores:      store.NewSet(client),
		taskHistory: store.NewHistory(client),
		logger:      logger,
		queries:     newQueryBox(),
		notices:     notices,
		quietPeriod: opts.QuietPeriod,
		clock:       c,
		activeTab:   tabUsers,
		focus:       focusList,
		userList:    newRowList("Users"),
		boardList:   newRowList("Boards"),
		historyView: viewport.New(0, 0),
		modal:       confirmModal{kind: modalNone},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadUsersCmd(),
		m.loadBoardsCmd(),
		m.loadUserHistoryCmd(),
		m.waitForQueryCmd(),
		m.waitForNoticeCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case noticeMsg:
		m.setStatus(msg.message, statusError)
		return m, m.waitForNoticeCmd()
	case usersLoadedMsg:
		m.reportErr(msg.err)
		m.refreshUsers()
		m.refreshBoards()
		m.refreshHistory()
		return m, m.refreshTasks()
	case boardsLoadedMsg:
		m.reportErr(msg.err)
		m.refreshBoards()
		return m, nil
	case tasksLoadedMsg:
		m.reportErr(msg.err)
		cmd := m.refreshTasks()
		return m, tea.Batch(cmd, m.waitForQueryCmd())
	case commentsLoadedMsg:
		m.reportErr(msg.err)
		m.refreshDetail()
		return m, nil
	case taskHistoryLoadedMsg:
		m.reportErr(msg.err)
		m.refreshDetail()
		return m, nil
	case userHistoryLoadedMsg:
		m.reportErr(msg.err)
		m.refreshHistory()
		return m, nil
	case opDoneMsg:
		return m.handleOpDone(msg)
	}

	switch {
	case m.form != nil:
		return m.updateForm(msg)
	case m.picker != nil:
		return m.updatePicker(msg)
	case m.modal.kind != modalNone:
		return m.updateModal(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading taskboard..."
	}
	contentHeight := max(m.height-3, 1)
	leftWidth, rightWidth := splitWidths(m.width)

	var content string
	switch {
	case m.activeTab == tabUsers:
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderPane(m.usersPane(), leftWidth, contentHeight, m.focus == focusList),
			m.renderPane(m.userDetail(), rightWidth, contentHeight, false))
	case m.activeTab == tabBoards && m.board != nil:
		content = m.renderBoardView(leftWidth, rightWidth, contentHeight)
	case m.activeTab == tabBoards:
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderPane(m.boardsPane(), leftWidth, contentHeight, m.focus == focusList),
			m.renderPane(m.boardDetail(), rightWidth, contentHeight, false))
	default:
		content = m.renderPane(m.historyView.View(), m.width, contentHeight, true)
	}

	view := strings.Join([]string{m.renderTabs(), m.renderHelpLine(), content, m.renderStatusLine()}, "\n")
	switch {
	case m.form != nil:
		view = m.renderOverlay(m.form.View())
	case m.picker != nil:
		view = m.renderOverlay(m.picker.View())
	case m.modal.kind != modalNone:
		view = m.renderOverlay(m.modalView())
	}
	return view
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusFilter && m.board != nil {
		return m.updateFilterInput(msg)
	}

	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.modal = confirmModal{kind: modalHelp}
		return m, nil
	case "1":
		return m.activateTab(tabUsers)
	case "2":
		return m.activateTab(tabBoards)
	case "3":
		return m.activateTab(tabHistory)
	case "[", "shift+tab", "backtab":
		if m.focus == focusList {
			return m.activateTab((m.activeTab + 2) % 3)
		}
	case "]", "tab":
		if m.focus == focusList {
			return m.activateTab((m.activeTab + 1) % 3)
		}
	}

	switch m.activeTab {
	case tabUsers:
		return m.handleUsersKey(msg)
	case tabBoards:
		if m.board != nil {
			return m.handleBoardViewKey(msg)
		}
		return m.handleBoardsKey(msg)
	default:
		return m.handleHistoryKey(msg)
	}
}

func (m model) activateTab(target tabKind) (tea.Model, tea.Cmd) {
	if target == m.activeTab {
		return m, nil
	}
	m.activeTab = target
	m.focus = focusList
	switch target {
	case tabBoards:
		return m, m.loadBoardsCmd()
	case tabHistory:
		return m, m.loadUserHistoryCmd()
	}
	return m, nil
}

func (m model) handleUsersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "u":
		return m.useSelectedUser()
	case "c":
		m.openForm(newForm(formCreateUser, "New user", "",
			lineField("name", "Name", ""),
			lineField("email", "Email", "")))
		return m, nil
	case "e":
		user, ok := m.stores.Users.Lookup(selectedRowID(m.userList))
		if !ok {
			return m, nil
		}
		m.openForm(newForm(formEditUser, "Edit user", user.ID,
			lineField("name", "Name", user.Name),
			lineField("email", "Email", user.Email)))
		return m, nil
	case "d":
		user, ok := m.stores.Users.Lookup(selectedRowID(m.userList))
		if !ok {
			return m, nil
		}
		m.confirm(opDeleteUser, user.ID, "Delete user "+user.Name+"?")
		return m, nil
	case "r":
		return m, m.loadUsersCmd()
	}
	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m model) useSelectedUser() (tea.Model, tea.Cmd) {
	user, ok := m.stores.Users.Lookup(selectedRowID(m.userList))
	if !ok {
		return m, nil
	}
	if err := m.session.Set(&user); err != nil {
		m.logger.Warn("save current user", "error", err)
	}
	m.closeBoard()
	m.refreshUsers()
	m.setStatus("Current user: "+user.Name, statusInfo)
	return m, tea.Batch(m.loadBoardsCmd(), m.loadUserHistoryCmd())
}

func (m model) handleBoardsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.UserID() == "" {
		return m, nil
	}
	board, selected := m.stores.Boards.Lookup(selectedRowID(m.boardList))
	switch msg.String() {
	case "enter", "o":
		if selected {
			return m.openBoard(board)
		}
		return m, nil
	case "c":
		m.openForm(newForm(formCreateBoard, "New board", "", lineField("name", "Name", "")))
		return m, nil
	case "r":
		if selected {
			m.openForm(newForm(formRenameBoard, "Rename board", board.ID, lineField("name", "Name", board.Name)))
		}
		return m, nil
	case "m":
		if selected {
			m.picker = newMemberPicker(board, m.stores.Users.Items())
		}
		return m, nil
	case "d":
		if selected {
			m.confirm(opDeleteBoard, board.ID, "Delete board "+board.Name+"?")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.boardList, cmd = m.boardList.Update(msg)
	return m, cmd
}

func (m model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "r" {
		return m, m.loadUserHistoryCmd()
	}
	var cmd tea.Cmd
	m.historyView, cmd = m.historyView.Update(msg)
	return m, cmd
}

func (m *model) openForm(f *formModel) {
	_, rightWidth := splitWidths(m.width)
	f.SetWidth(max(rightWidth-8, 20))
	m.form = f
}

func (m *model) confirm(action opKind, targetID, message string) {
	m.modal = confirmModal{
		kind:        modalConfirm,
		action:      action,
		targetID:    targetID,
		message:     message,
		confirmText: "Delete",
		cancelText:  "Cancel",
		selected:    1,
	}
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd, submit, cancel := m.form.Update(msg)
	if cancel {
		m.form = nil
		return m, nil
	}
	if submit {
		m.form.err = ""
		return m, tea.Batch(cmd, m.submitForm(m.form))
	}
	return m, cmd
}

func (m model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	save, cancel := m.picker.Update(msg)
	if cancel {
		m.picker = nil
		return m, nil
	}
	if !save {
		return m, nil
	}
	boardID, members := m.picker.boardID, m.picker.MemberIDs()
	m.picker = nil
	boards := m.stores.Boards
	return m, m.runOp(opBoard, boardID, "Members updated", func(ctx context.Context) error {
		return boards.SetMembers(ctx, boardID, members)
	})
}

func (m model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.modal.kind == modalHelp {
		switch key.String() {
		case "?", "esc":
			m.modal = confirmModal{kind: modalNone}
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}
	switch key.String() {
	case "left", "right", "tab", "shift+tab", "backtab":
		m.modal.selected = 1 - m.modal.selected
		return m, nil
	case "y":
		return m.resolveModal(true)
	case "n", "esc":
		return m.resolveModal(false)
	case "enter":
		return m.resolveModal(m.modal.selected == 0)
	}
	return m, nil
}

func (m model) resolveModal(confirm bool) (tea.Model, tea.Cmd) {
	modal := m.modal
	m.modal = confirmModal{kind: modalNone}
	if !confirm {
		return m, nil
	}
	id := modal.targetID
	switch modal.action {
	case opDeleteUser:
		users, session := m.stores.Users, m.session
		return m, m.runOp(opDeleteUser, id, "User deleted", func(ctx context.Context) error {
			if err := users.Delete(ctx, id); err != nil {
				return err
			}
			if session.UserID() == id {
				return session.Set(nil)
			}
			return nil
		})
	case opDeleteBoard:
		boards := m.stores.Boards
		return m, m.runOp(opDeleteBoard, id, "Board deleted", func(ctx context.Context) error {
			return boards.Delete(ctx, id)
		})
	case opDeleteTask:
		tasks := m.stores.Tasks
		return m, m.runOp(opDeleteTask, id, "Task deleted", func(ctx context.Context) error {
			return tasks.Delete(ctx, id)
		})
	case opDeleteComment:
		comments := m.stores.Comments
		return m, m.runOp(opDeleteComment, id, "Comment deleted", func(ctx context.Context) error {
			return comments.Delete(ctx, id)
		})
	}
	return m, nil
}

func (m model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.form != nil {
			m.form.err = errorMessage(msg.err)
		}
		m.reportErr(msg.err)
		return m, nil
	}
	m.form = nil
	m.setStatus(msg.done, statusInfo)

	switch msg.purpose {
	case opUser, opDeleteUser:
		m.refreshUsers()
		if msg.purpose == opDeleteUser && m.session.UserID() == "" {
			m.closeBoard()
		}
		return m, tea.Batch(m.loadBoardsCmd(), m.loadUserHistoryCmd())
	case opBoard:
		m.refreshBoards()
		if m.board != nil && m.board.board.ID == msg.id {
			if board, ok := m.stores.Boards.Lookup(msg.id); ok {
				m.board.board = board
			}
		}
	case opDeleteBoard:
		if m.board != nil && m.board.board.ID == msg.id {
			m.closeBoard()
		}
		m.refreshBoards()
	case opTask, opDeleteTask:
		m.refreshTasks()
		if m.board != nil {
			m.queries.Put(m.board.pipeline.Query())
		}
		if m.board != nil && msg.purpose == opTask {
			return m, m.loadTaskHistoryCmd(m.board.selectedTaskID)
		}
	case opComment, opDeleteComment:
		m.refreshDetail()
	}
	return m, nil
}

// reportErr shows err in the status line unless the gateway already did.
func (m *model) reportErr(err error) {
	if err == nil || store.Notified(err) {
		return
	}
	m.setStatus(errorMessage(err), statusError)
}

func errorMessage(err error) string {
	var opErr *store.OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	return err.Error()
}

func (m *model) setStatus(text string, level statusLevel) {
	m.status = text
	m.statusLevel = level
}

func (m *model) refreshUsers() {
	state := m.stores.Users.Snapshot()
	setRows(&m.userList, userRows(state.Items, m.session.UserID()), selectedRowID(m.userList))
}

func (m *model) refreshBoards() {
	state := m.stores.Boards.Snapshot()
	setRows(&m.boardList, boardRows(state.Items, m.stores.Users, m.session.UserID()), selectedRowID(m.boardList))
}

func (m *model) resize() {
	contentHeight := max(m.height-3, 1)
	leftWidth, rightWidth := splitWidths(m.width)
	listWidth := max(leftWidth-4, 1)
	listHeight := max(contentHeight-3, 1)
	m.userList.SetSize(listWidth, listHeight)
	m.boardList.SetSize(listWidth, listHeight)
	m.historyView.Width = max(m.width-4, 1)
	m.historyView.Height = max(contentHeight-2, 1)
	if m.board != nil {
		m.board.resize(listWidth, listHeight-2, max(rightWidth-4, 1), max(contentHeight-2, 1))
	}
	m.refreshHistory()
	m.refreshDetail()
}

func splitWidths(width int) (int, int) {
	left := width / 3
	if left < 30 {
		left = 30
	}
	if left > width-20 {
		left = width / 2
	}
	right := width - left
	if right < 20 {
		right = 20
		left = width - right
	}
	return left, right
}

func (m model) renderTabs() string {
	parts := make([]string, 0, len(tabLabels))
	for i, label := range tabLabels {
		style := tabInactiveStyle
		if tabKind(i) == m.activeTab {
			style = tabActiveStyle
		}
		parts = append(parts, style.Render(label))
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	who := "no current user"
	if user, ok := m.session.User(); ok {
		who = user.Name
	}
	hint := valueMuted.Render(who + " | ? help")
	spacer := strings.Repeat(" ", max(m.width-lipgloss.Width(content)-lipgloss.Width(hint), 1))
	return tabBarStyle.Width(m.width).Render(content + spacer + hint)
}

func (m model) renderPane(content string, width, height int, focused bool) string {
	style := paneStyle
	if focused {
		style = paneActiveStyle
	}
	return style.Width(max(width, 0)).Height(max(height, 0)).Render(content)
}

func (m model) renderStatusLine() string {
	if strings.TrimSpace(m.status) == "" {
		return ""
	}
	style := valueMuted
	switch m.statusLevel {
	case statusError:
		style = statusErrorStyle
	case statusInfo:
		style = statusSuccessStyle
	}
	return style.Render(truncateText(m.status, m.width))
}

func (m model) renderHelpLine() string {
	return helpBarStyle.Width(m.width).Render(truncateText(m.helpSummary(), m.width))
}

func (m model) helpSummary() string {
	switch m.activeTab {
	case tabUsers:
		return "Keys: enter use | c new | e edit | d delete | r reload | tab switch tabs | q quit"
	case tabBoards:
		if m.board == nil {
			return "Keys: enter open | c new | r rename | m members | d delete | tab switch tabs | q quit"
		}
		switch m.focus {
		case focusFilter:
			return "Keys: type to filter | tab title/description | enter/esc done"
		case focusDetail:
			return "Keys: up/down comment | n comment | e edit | d delete | pgup/pgdown scroll | esc back"
		}
		return "Keys: enter detail | c new | e edit | d delete | s status | a assignee | / search | x clear | esc boards"
	}
	return "Keys: up/down/pgup/pgdown scroll | r reload | tab switch tabs | q quit"
}

func (m model) renderOverlay(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}

func (m model) modalView() string {
	if m.modal.kind == modalHelp {
		return m.helpContent()
	}
	buttons := make([]string, 0, 2)
	for i, option := range []string{m.modal.confirmText, m.modal.cancelText} {
		style := valueMuted
		if i == m.modal.selected {
			style = selectedBorder
		}
		buttons = append(buttons, style.Render("["+option+"]"))
	}
	return strings.Join([]string{m.modal.message, "", strings.Join(buttons, " ")}, "\n")
}

func (m model) helpContent() string {
	sections := []string{
		labelStyle.Render("Global"),
		"q or ctrl+c: quit",
		"1/2/3, [ or ], tab: switch tabs",
		"?: toggle help",
		"",
		labelStyle.Render("Users"),
		"enter: make current | c: create | e: edit | d: delete",
		"",
		labelStyle.Render("Boards"),
		"enter: open | c: create | r: rename | m: members | d: delete",
		"",
		labelStyle.Render("Board"),
		"s: cycle status filter | a: cycle assignee filter",
		"/: search title and description | x: clear filters",
		"c: new task | e: edit task | d: delete task | enter: detail",
		"n: comment | e/d on your comment: edit/delete",
		"",
		labelStyle.Render("Help"),
		"press ? or esc to close",
	}
	return strings.Join(sections, "\n")
}
