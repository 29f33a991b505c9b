package permission

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/clippy-ai/clippy/internal/event"
)

// Manager resolves permission checks against the policy and remembers
// per-session approvals.
type Manager struct {
	mu       sync.RWMutex
	policy   Policy
	approved map[string]map[Action]bool  // sessionID -> action -> approved
	patterns map[string]map[string]bool  // sessionID -> bash pattern -> approved
	pending  map[string]chan Response    // requestID -> response channel
}

// NewManager creates a Manager with the given policy.
func NewManager(policy Policy) *Manager {
	return &Manager{
		policy:   policy,
		approved: make(map[string]map[Action]bool),
		patterns: make(map[string]map[string]bool),
		pending:  make(map[string]chan Response),
	}
}

// Policy returns the active policy.
func (m *Manager) Policy() Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// Check resolves a request: allow passes, deny returns RejectedError, ask
// blocks until the user responds or ctx is done.
func (m *Manager) Check(ctx context.Context, req Request) error {
	switch m.policy.Decide(req.Action) {
	case Allow:
		return nil
	case Deny:
		return &RejectedError{
			SessionID: req.SessionID,
			Action:    req.Action,
			CallID:    req.CallID,
			Message:   "Permission denied by policy",
		}
	default:
		return m.ask(ctx, req)
	}
}

// CheckBash resolves an execute_command request against the bash pattern
// table before falling back to the execute action decision.
func (m *Manager) CheckBash(ctx context.Context, req Request, command string) error {
	commands, err := ParseBashCommand(command)
	if err != nil {
		// Unparseable commands always go to ask.
		return m.ask(ctx, req)
	}

	decision := Allow
	for _, cmd := range commands {
		switch MatchBashPattern(cmd, m.policy.Bash) {
		case Deny:
			return &RejectedError{
				SessionID: req.SessionID,
				Action:    req.Action,
				CallID:    req.CallID,
				Message:   "Command denied by policy: " + cmd.Name,
			}
		case Ask:
			decision = Ask
		}
	}
	if decision == Allow {
		return nil
	}
	return m.ask(ctx, req)
}

func (m *Manager) ask(ctx context.Context, req Request) error {
	m.mu.RLock()
	if m.approved[req.SessionID][req.Action] {
		m.mu.RUnlock()
		return nil
	}
	if len(req.Patterns) > 0 {
		all := true
		for _, p := range req.Patterns {
			if !m.patterns[req.SessionID][p] {
				all = false
				break
			}
		}
		if all {
			m.mu.RUnlock()
			return nil
		}
	}
	m.mu.RUnlock()

	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	respCh := make(chan Response, 1)
	m.mu.Lock()
	m.pending[req.ID] = respCh
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, req.ID)
		m.mu.Unlock()
	}()

	event.Publish(event.Event{
		Type: event.PermissionRequired,
		Data: event.PermissionRequiredData{
			ID:        req.ID,
			SessionID: req.SessionID,
			Action:    string(req.Action),
			Patterns:  req.Patterns,
			Title:     req.Title,
		},
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-respCh:
		switch resp.Answer {
		case "once":
			return nil
		case "always":
			m.approve(req.SessionID, req.Action, req.Patterns)
			return nil
		default:
			return &RejectedError{
				SessionID: req.SessionID,
				Action:    req.Action,
				CallID:    req.CallID,
				Message:   "Permission rejected by user",
			}
		}
	}
}

// Respond settles a pending request.
func (m *Manager) Respond(requestID, answer string) {
	m.mu.RLock()
	ch, ok := m.pending[requestID]
	m.mu.RUnlock()
	if ok {
		ch <- Response{RequestID: requestID, Answer: answer}
	}

	event.Publish(event.Event{
		Type: event.PermissionResolved,
		Data: event.PermissionResolvedData{
			ID:      requestID,
			Granted: answer != "reject",
		},
	})
}

func (m *Manager) approve(sessionID string, action Action, patterns []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.approved[sessionID] == nil {
		m.approved[sessionID] = make(map[Action]bool)
	}
	m.approved[sessionID][action] = true
	if len(patterns) > 0 {
		if m.patterns[sessionID] == nil {
			m.patterns[sessionID] = make(map[string]bool)
		}
		for _, p := range patterns {
			m.patterns[sessionID][p] = true
		}
	}
}

// IsApproved reports whether a session has a standing approval for action.
func (m *Manager) IsApproved(sessionID string, action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approved[sessionID][action]
}

// ClearSession drops all approvals for a session.
func (m *Manager) ClearSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.approved, sessionID)
	delete(m.patterns, sessionID)
}
