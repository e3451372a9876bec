package testsupport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amonks/taskboard/api"
)

// FakeAPI is an in-memory task-board server.
type FakeAPI struct {
	engine *gin.Engine

	mu       sync.Mutex
	users    []api.User
	boards   []api.Board
	tasks    []api.Task
	comments []api.Comment
	history  []api.HistoryLog
	failures []failure
	requests []string

	// Now stamps comments and history entries.
	Now func() time.Time
}

type failure struct {
	method  string
	path    string
	status  int
	message string
}

// NewFakeAPI constructs an empty server with every route registered.
func NewFakeAPI() *FakeAPI {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	f := &FakeAPI{engine: router, Now: time.Now}
	router.Use(f.record, f.injectFailure)
	f.registerRoutes()
	return f
}

// StartFakeAPI serves a new FakeAPI for the duration of the test.
func StartFakeAPI(t testing.TB) (*FakeAPI, string) {
	t.Helper()

	f := NewFakeAPI()
	server := httptest.NewServer(f.Handler())
	t.Cleanup(server.Close)
	return f, server.URL
}

// Serve starts an HTTP server for f and returns its URL and a shutdown func.
func (f *FakeAPI) Serve() (string, func()) {
	server := httptest.NewServer(f.Handler())
	return server.URL, server.Close
}

// Handler exposes the router.
func (f *FakeAPI) Handler() http.Handler {
	return f.engine
}

// FailNext makes the next request matching method and path fail with
// status. An empty message sends a body without the error envelope.
func (f *FakeAPI) FailNext(method, path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, failure{method: method, path: path, status: status, message: message})
}

// Requests returns every request received, formatted "METHOD /path?query".
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// ResetRequests forgets the recorded requests.
func (f *FakeAPI) ResetRequests() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

// AddUser seeds a user.
func (f *FakeAPI) AddUser(name, email string) api.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := api.User{ID: uuid.NewString(), Name: name, Email: email}
	f.users = append(f.users, user)
	return user
}

// AddBoard seeds a board.
func (f *FakeAPI) AddBoard(name, ownerID string, memberIDs ...string) api.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	board := api.Board{ID: uuid.NewString(), Name: name, OwnerID: ownerID, MemberIDs: memberIDs}
	f.boards = append(f.boards, board)
	return board
}

// AddTask seeds a task.
func (f *FakeAPI) AddTask(task api.Task) api.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = api.StatusTodo
	}
	f.tasks = append(f.tasks, task)
	return task
}

// AddComment seeds a comment.
func (f *FakeAPI) AddComment(taskID, userID, text string) api.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment := api.Comment{ID: uuid.NewString(), TaskID: taskID, UserID: userID, Text: text, CreatedAt: f.Now().UTC()}
	f.comments = append(f.comments, comment)
	return comment
}

// Tasks returns the stored tasks.
func (f *FakeAPI) Tasks() []api.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Task(nil), f.tasks...)
}

func (f *FakeAPI) record(c *gin.Context) {
	line := c.Request.Method + " " + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		line += "?" + c.Request.URL.RawQuery
	}
	f.mu.Lock()
	f.requests = append(f.requests, line)
	f.mu.Unlock()
	c.Next()
}

func (f *FakeAPI) injectFailure(c *gin.Context) {
	f.mu.Lock()
	var hit *failure
	for i, candidate := range f.failures {
		if candidate.method == c.Request.Method && candidate.path == c.Request.URL.Path {
			hit = &candidate
			f.failures = append(f.failures[:i], f.failures[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	if hit == nil {
		c.Next()
		return
	}
	if hit.message == "" {
		c.String(hit.status, http.StatusText(hit.status))
	} else {
		c.JSON(hit.status, gin.H{"message": hit.message})
	}
	c.Abort()
}

func (f *FakeAPI) registerRoutes() {
	users := f.engine.Group("/users")
	{
		users.GET("", f.handleListUsers)
		users.POST("", f.handleCreateUser)
		users.PATCH(":id", f.handleUpdateUser)
		users.DELETE(":id", f.handleDeleteUser)
	}

	boards := f.engine.Group("/boards")
	{
		boards.GET("/user/:userId", f.handleListBoards)
		boards.POST("", f.handleCreateBoard)
		boards.PATCH(":id", f.handleUpdateBoard)
		boards.PATCH(":id/members", f.handleSetMembers)
		boards.DELETE(":id", f.handleDeleteBoard)
	}

	tasks := f.engine.Group("/tasks")
	{
		tasks.GET("", f.handleListTasks)
		tasks.POST("", f.handleCreateTask)
		tasks.PATCH(":id", f.handleUpdateTask)
		tasks.DELETE(":id", f.handleDeleteTask)
	}

	comments := f.engine.Group("/comments")
	{
		comments.GET("", f.handleListComments)
		comments.POST("", f.handleCreateComment)
		comments.PATCH(":id", f.handleUpdateComment)
		comments.DELETE(":id", f.handleDeleteComment)
	}

	f.engine.GET("/history", f.handleTaskHistory)
	f.engine.GET("/history/user/:userId", f.handleUserHistory)
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

func indexOf[T api.Entity](items []T, id string) int {
	for i, item := range items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

func without[T api.Entity](items []T, i int) []T {
	return append(items[:i:i], items[i+1:]...)
}

func (f *FakeAPI) handleListUsers(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.JSON(http.StatusOK, nonNil(f.users))
}

func (f *FakeAPI) handleCreateUser(c *gin.Context) {
	var req api.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Email == "" {
		respondMessage(c, http.StatusBadRequest, "Name and email are required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, req.Email) {
			respondMessage(c, http.StatusBadRequest, "Email already in use")
			return
		}
	}
	user := api.User{ID: uuid.NewString(), Name: req.Name, Email: req.Email}
	f.users = append(f.users, user)
	c.JSON(http.StatusCreated, user)
}

func (f *FakeAPI) handleUpdateUser(c *gin.Context) {
	var req api.UserPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.users, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "User not found")
		return
	}
	req.Apply(&f.users[i])
	c.JSON(http.StatusOK, f.users[i])
}

func (f *FakeAPI) handleDeleteUser(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.users, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "User not found")
		return
	}
	f.users = without(f.users, i)
	respondMessage(c, http.StatusOK, "User deleted")
}

func (f *FakeAPI) handleListBoards(c *gin.Context) {
	userID := c.Param("userId")

	f.mu.Lock()
	defer f.mu.Unlock()
	visible := []api.Board{}
	for _, board := range f.boards {
		if board.OwnerID == userID || board.HasMember(userID) {
			visible = append(visible, board)
		}
	}
	c.JSON(http.StatusOK, visible)
}

func (f *FakeAPI) handleCreateBoard(c *gin.Context) {
	var req api.BoardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondMessage(c, http.StatusBadRequest, "Board name is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if indexOf(f.users, req.OwnerID) < 0 {
		respondMessage(c, http.StatusBadRequest, "Owner not found")
		return
	}
	board := api.Board{ID: uuid.NewString(), Name: req.Name, OwnerID: req.OwnerID, MemberIDs: req.MemberIDs}
	f.boards = append(f.boards, board)
	c.JSON(http.StatusCreated, board)
}

func (f *FakeAPI) handleUpdateBoard(c *gin.Context) {
	var req api.BoardPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.boards, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Board not found")
		return
	}
	req.Apply(&f.boards[i])
	c.JSON(http.StatusOK, f.boards[i])
}

func (f *FakeAPI) handleSetMembers(c *gin.Context) {
	var req api.MembersPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.boards, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Board not found")
		return
	}
	req.Apply(&f.boards[i])
	c.JSON(http.StatusOK, f.boards[i])
}

func (f *FakeAPI) handleDeleteBoard(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.boards, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Board not found")
		return
	}
	f.boards = without(f.boards, i)
	respondMessage(c, http.StatusOK, "Board deleted")
}

func (f *FakeAPI) handleListTasks(c *gin.Context) {
	boardID := c.Query("boardId")
	status := c.Query("status")
	assigneeID := c.Query("assigneeId")
	title := strings.ToLower(c.Query("title"))
	description := strings.ToLower(c.Query("description"))

	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []api.Task{}
	for _, task := range f.tasks {
		switch {
		case boardID != "" && task.BoardID != boardID:
		case status != "" && string(task.Status) != status:
		case assigneeID != "" && task.AssigneeID != assigneeID:
		case title != "" && !strings.Contains(strings.ToLower(task.Title), title):
		case description != "" && !strings.Contains(strings.ToLower(task.Description), description):
		default:
			matched = append(matched, task)
		}
	}
	c.JSON(http.StatusOK, matched)
}

func (f *FakeAPI) handleCreateTask(c *gin.Context) {
	var req api.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Title == "" {
		respondMessage(c, http.StatusBadRequest, "Title is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if indexOf(f.boards, req.BoardID) < 0 {
		respondMessage(c, http.StatusBadRequest, "Board not found")
		return
	}
	status := req.Status
	if status == "" {
		status = api.StatusTodo
	}
	task := api.Task{
		ID:          uuid.NewString(),
		BoardID:     req.BoardID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		AssigneeID:  req.AssigneeID,
	}
	f.tasks = append(f.tasks, task)
	c.JSON(http.StatusCreated, task)
}

func (f *FakeAPI) handleUpdateTask(c *gin.Context) {
	var req api.TaskPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.tasks, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Task not found")
		return
	}
	before := f.tasks[i]
	req.Apply(&f.tasks[i])
	f.logChanges(before, f.tasks[i], req.ChangedByUserID)
	c.JSON(http.StatusOK, f.tasks[i])
}

// logChanges appends one history entry per changed field. The caller holds
// the lock.
func (f *FakeAPI) logChanges(before, after api.Task, changedBy string) {
	changes := []struct {
		field    string
		old, new string
	}{
		{"title", before.Title, after.Title},
		{"description", before.Description, after.Description},
		{"status", string(before.Status), string(after.Status)},
		{"assigneeId", before.AssigneeID, after.AssigneeID},
	}
	now := f.Now().UTC()
	for _, change := range changes {
		if change.old == change.new {
			continue
		}
		entry := api.HistoryLog{
			ID:        uuid.NewString(),
			TaskID:    after.ID,
			Field:     change.field,
			OldValue:  optional(change.old),
			NewValue:  optional(change.new),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if changedBy != "" {
			entry.ChangedByUserID = api.StringPtr(changedBy)
		}
		f.history = append(f.history, entry)
	}
}

func (f *FakeAPI) handleDeleteTask(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.tasks, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Task not found")
		return
	}
	f.tasks = without(f.tasks, i)
	respondMessage(c, http.StatusOK, "Task deleted")
}

func (f *FakeAPI) handleListComments(c *gin.Context) {
	taskID := c.Query("taskId")

	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []api.Comment{}
	for _, comment := range f.comments {
		if comment.TaskID == taskID {
			matched = append(matched, comment)
		}
	}
	c.JSON(http.StatusOK, matched)
}

func (f *FakeAPI) handleCreateComment(c *gin.Context) {
	var req api.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" {
		respondMessage(c, http.StatusBadRequest, "Comment text is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if indexOf(f.tasks, req.TaskID) < 0 {
		respondMessage(c, http.StatusBadRequest, "Task not found")
		return
	}
	comment := api.Comment{ID: uuid.NewString(), TaskID: req.TaskID, UserID: req.UserID, Text: req.Text, CreatedAt: f.Now().UTC()}
	f.comments = append(f.comments, comment)
	c.JSON(http.StatusCreated, comment)
}

func (f *FakeAPI) handleUpdateComment(c *gin.Context) {
	var req api.CommentPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.comments, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Comment not found")
		return
	}
	req.Apply(&f.comments[i])
	c.JSON(http.StatusOK, f.comments[i])
}

func (f *FakeAPI) handleDeleteComment(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := indexOf(f.comments, c.Param("id"))
	if i < 0 {
		respondMessage(c, http.StatusNotFound, "Comment not found")
		return
	}
	f.comments = without(f.comments, i)
	respondMessage(c, http.StatusOK, "Comment deleted")
}

func (f *FakeAPI) handleTaskHistory(c *gin.Context) {
	taskID := c.Query("taskId")

	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []api.HistoryLog{}
	for _, entry := range f.history {
		if entry.TaskID == taskID {
			matched = append(matched, entry)
		}
	}
	c.JSON(http.StatusOK, matched)
}

func (f *FakeAPI) handleUserHistory(c *gin.Context) {
	userID := c.Param("userId")

	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []api.HistoryLog{}
	for _, entry := range f.history {
		if entry.ChangedByUserID != nil && *entry.ChangedByUserID == userID {
			matched = append(matched, entry)
		}
	}
	c.JSON(http.StatusOK, matched)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return api.StringPtr(value)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return append([]T(nil), items...)
}
