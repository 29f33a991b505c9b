package event

// SessionData is published when an agent run starts or finishes.
type SessionData struct {
	SessionID string `json:"sessionID"`
	Agent     string `json:"agent"`
	Steps     int    `json:"steps,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ToolExecutedData is published after every tool call, whether it succeeded
// or not.
type ToolExecutedData struct {
	SessionID string `json:"sessionID"`
	CallID    string `json:"callID"`
	Tool      string `json:"tool"`
	OK        bool   `json:"ok"`
	Title     string `json:"title,omitempty"`
}

// FileEditedData is published when a tool modifies a file on disk.
type FileEditedData struct {
	File string `json:"file"`
}

// PermissionRequiredData is published when a tool call needs approval.
type PermissionRequiredData struct {
	ID        string   `json:"id"`
	SessionID string   `json:"sessionID"`
	Action    string   `json:"action"`
	Patterns  []string `json:"patterns,omitempty"`
	Title     string   `json:"title"`
}

// PermissionResolvedData is published when an approval request settles.
type PermissionResolvedData struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}

// SubagentData is published at subagent start and completion.
type SubagentData struct {
	SessionID string `json:"sessionID"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Error     string `json:"error,omitempty"`
}

// BranchChangedData is published by the vcs watcher when .git/HEAD moves.
type BranchChangedData struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}
