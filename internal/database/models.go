package database

// User is a row of users. The password hash never leaves the store through
// this type.
type User struct {
	ID          int64   `json:"-"`
	Username    string  `json:"username"`
	RoleGlobal  int     `json:"role_global"`
	DisplayName *string `json:"display_name"`
}

// ProjectSummary is one entry of a user's project list.
type ProjectSummary struct {
	ID          int64   `json:"id"`
	Role        int     `json:"role"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// Member is a user's membership in a project.
type Member struct {
	Username string `json:"username"`
	Role     int    `json:"role"`
}

// ProjectDetails is a project with its members.
type ProjectDetails struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Users       []Member `json:"users"`
}

// Project identifies a newly created project.
type Project struct {
	ID            int64   `json:"-"`
	PubID         int64   `json:"id"`
	DefaultFolder *Folder `json:"-"`
}

// Folder is a folder row as exposed by the API.
type Folder struct {
	ID    int64  `json:"-"`
	PubID int64  `json:"id"`
	Title string `json:"title"`
}

// Task is a task row with public ids of its project and folder.
// Timestamps are unix seconds.
type Task struct {
	ID           int64   `json:"-"`
	PubID        int64   `json:"id"`
	ProjectPubID int64   `json:"project_id"`
	FolderPubID  int64   `json:"folder_id"`
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	DatetimeFrom *int64  `json:"datetime_from"`
	DatetimeDue  *int64  `json:"datetime_due"`
	Created      int64   `json:"created"`
	Edited       int64   `json:"edited"`
}

// NewTask is the input of CreateTask.
type NewTask struct {
	ProjectID    int64
	FolderID     int64
	UserID       int64
	Title        string
	Description  *string
	DatetimeFrom *int64
	DatetimeDue  *int64
}

// Nullable is an optional update of a nullable column. Set=false leaves the
// column alone; Set=true with a nil Value writes NULL.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// TaskUpdate lists the columns to change; nil Title leaves it unchanged.
type TaskUpdate struct {
	Title        *string
	Description  Nullable[string]
	DatetimeFrom Nullable[int64]
	DatetimeDue  Nullable[int64]
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && !u.Description.Set && !u.DatetimeFrom.Set && !u.DatetimeDue.Set
}
