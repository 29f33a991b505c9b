// Package permission gates tool execution behind a policy table and
// per-session approvals.
package permission

// Decision is what the policy says to do with an action.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
	Ask   Decision = "ask"
)

// Action classifies a tool call for permission purposes.
type Action string

const (
	ActionReadFile    Action = "read_file"
	ActionWriteFile   Action = "write_file"
	ActionEditFile    Action = "edit_file"
	ActionDeleteFile  Action = "delete_file"
	ActionListDir     Action = "list_directory"
	ActionCreateDir   Action = "create_directory"
	ActionExecute     Action = "execute_command"
	ActionSearchFiles Action = "search_files"
	ActionGrep        Action = "grep"
	ActionFileInfo    Action = "get_file_info"
	ActionWebFetch    Action = "web_fetch"
	ActionGitAnalyze  Action = "git_analyzer"
	ActionPRManage    Action = "pr_manager"
	ActionTask        Action = "task"
	ActionMCP         Action = "mcp"
)

// Policy is the static permission table: one decision per action class plus
// wildcard patterns for shell commands.
type Policy struct {
	Actions map[Action]Decision  `json:"actions"`
	Bash    map[string]Decision  `json:"bash"`
	Default Decision             `json:"default"`
}

// DefaultPolicy allows read-only actions and asks for everything mutating.
func DefaultPolicy() Policy {
	return Policy{
		Actions: map[Action]Decision{
			ActionReadFile:    Allow,
			ActionListDir:     Allow,
			ActionSearchFiles: Allow,
			ActionGrep:        Allow,
			ActionFileInfo:    Allow,
			ActionGitAnalyze:  Allow,
			ActionWriteFile:   Ask,
			ActionEditFile:    Ask,
			ActionDeleteFile:  Ask,
			ActionCreateDir:   Ask,
			ActionExecute:     Ask,
			ActionWebFetch:    Ask,
			ActionPRManage:    Ask,
			ActionTask:        Allow,
			ActionMCP:         Ask,
		},
		Bash:    map[string]Decision{},
		Default: Ask,
	}
}

// Decide looks up the decision for an action, falling back to the policy
// default.
func (p Policy) Decide(action Action) Decision {
	if d, ok := p.Actions[action]; ok {
		return d
	}
	if p.Default != "" {
		return p.Default
	}
	return Ask
}

// Request describes a pending approval.
type Request struct {
	ID        string   `json:"id"`
	SessionID string   `json:"sessionID"`
	CallID    string   `json:"callID,omitempty"`
	Action    Action   `json:"action"`
	Patterns  []string `json:"patterns,omitempty"`
	Title     string   `json:"title"`
}

// Response is the user's answer to a Request.
type Response struct {
	RequestID string `json:"requestID"`
	Answer    string `json:"answer"` // "once" | "always" | "reject"
}

// RejectedError is returned when permission is denied.
type RejectedError struct {
	SessionID string
	Action    Action
	CallID    string
	Message   string
}

func (e *RejectedError) Error() string { return e.Message }

// IsRejected reports whether err is a permission rejection.
func IsRejected(err error) bool {
	_, ok := err.(*RejectedError)
	return ok
}
