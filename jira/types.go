package jira

// SearchResponse is the response from POST /rest/api/2/search.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []RawIssue `json:"issues"`
}

// RawIssue is a single Jira issue as returned by the REST API.
type RawIssue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
	// Present when expand=changelog.
	Changelog *Changelog `json:"changelog,omitempty"`
}

// IssueFields contains the fields of a Jira issue requested by this
// library. Every field listed here must also appear in issueFields or the
// server omits it.
type IssueFields struct {
	Summary        string       `json:"summary"`
	Description    string       `json:"description,omitempty"`
	Status         Status       `json:"status"`
	Priority       Priority     `json:"priority"`
	IssueType      IssueType    `json:"issuetype"`
	Assignee       *User        `json:"assignee"`
	Project        RawProject   `json:"project"`
	Created        string       `json:"created"`
	Updated        string       `json:"updated"`
	Resolution     *Resolution  `json:"resolution"`
	ResolutionDate string       `json:"resolutiondate,omitempty"`
	Labels         []string     `json:"labels,omitempty"`
	FixVersions    []Version    `json:"fixVersions,omitempty"`
	IssueLinks     []IssueLink  `json:"issuelinks,omitempty"`
	Parent         *Parent      `json:"parent,omitempty"`
	// Old-style epic link custom field; new Jira reports the epic as the
	// parent instead.
	EpicLink string       `json:"customfield_10001,omitempty"`
	Comment  *CommentPage `json:"comment,omitempty"`
}

// Status represents the status of a Jira issue.
type Status struct {
	Name           string         `json:"name"`
	ID             string         `json:"id"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// StatusCategory is the broad category a status belongs to.
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Priority represents the priority level of a Jira issue.
type Priority struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// IssueType represents the type of a Jira issue (Bug, Story, etc.).
type IssueType struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Resolution describes how a resolved issue was closed.
type Resolution struct {
	Name string `json:"name"`
}

// Version is a project version, used here for fix versions.
type Version struct {
	Name string `json:"name"`
}

// User represents a Jira user.
type User struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// RawProject represents a Jira project as returned by the REST API.
type RawProject struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Parent is the parent issue reference of a sub-task or epic child.
type Parent struct {
	Key    string       `json:"key"`
	Fields ParentFields `json:"fields"`
}

// ParentFields carries the subset of parent fields Jira inlines.
type ParentFields struct {
	Summary string `json:"summary"`
}

// IssueLink is a directed link between two issues.
type IssueLink struct {
	InwardIssue  *LinkedIssue `json:"inwardIssue,omitempty"`
	OutwardIssue *LinkedIssue `json:"outwardIssue,omitempty"`
}

// LinkedIssue is the far end of an issue link.
type LinkedIssue struct {
	Key string `json:"key"`
}

// Changelog holds the issue history returned with expand=changelog.
type Changelog struct {
	Histories []ChangeHistory `json:"histories"`
}

// ChangeHistory is one changelog entry: a set of field changes made at a
// single point in time.
type ChangeHistory struct {
	Created string       `json:"created"`
	Items   []ChangeItem `json:"items"`
}

// ChangeItem is a single field change within a history entry.
type ChangeItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// Comment represents a single comment on a Jira issue.
type Comment struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Author  User   `json:"author"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

// CommentPage holds a paginated list of comments.
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	StartAt    int       `json:"startAt"`
}

// Myself is the response from GET /rest/api/2/myself.
type Myself struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// ErrorResponse is the standard Jira error response format.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
