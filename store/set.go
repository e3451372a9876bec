package store

import "github.com/amonks/taskboard/api"

// Set groups the stores of one client session.
type Set struct {
	Users    *Users
	Boards   *Boards
	Tasks    *Tasks
	Comments *Comments
	History  *History
}

// NewSet creates every store around one gateway client.
func NewSet(client *api.Client) *Set {
	return &Set{
		Users:    NewUsers(client),
		Boards:   NewBoards(client),
		Tasks:    NewTasks(client),
		Comments: NewComments(client),
		History:  NewHistory(client),
	}
}

// OnChange installs fn as the change callback of every store.
func (s *Set) OnChange(fn func()) {
	s.Users.OnChange = fn
	s.Boards.OnChange = fn
	s.Tasks.OnChange = fn
	s.Comments.OnChange = fn
	s.History.OnChange = fn
}
