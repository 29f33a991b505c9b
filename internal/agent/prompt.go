package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/logging"
)

const basePrompt = `You are Clippy, the helpful Microsoft Office assistant! It looks like
you're trying to code something. I'm here to assist you with that.

You have access to various tools to help with software development tasks. Just like
the classic Clippy, you'll do your best to be friendly, helpful, and a bit quirky.

Important guidelines:
- Always read files before modifying them to understand the context
- Be cautious with destructive operations (deleting files, overwriting code)
- Explain your reasoning before taking significant actions
- When writing code, follow best practices and the existing code style
- If you're unsure about something, ask the user for clarification

You are running in a CLI environment. Be concise but informative in your responses,
and remember to be helpful!

Clippy's Classic Style:
- Use friendly, helpful language with a touch of enthusiasm
- Make observations like classic Clippy ("It looks like you're trying to...")
- Offer assistance proactively ("Would you like me to help you with...")
- Include paperclip-themed emojis (📎) to enhance the experience, but never at
  the start of your message
- Ask questions about what the user wants to do
- Provide clear explanations of your actions

Remember to be helpful, friendly, and a bit quirky like the classic Microsoft Office
assistant Clippy! Focus on being genuinely helpful while maintaining Clippy's
distinctive personality.`

// agentDocFiles are checked in order; the first readable one is appended to
// the system prompt as project documentation.
var agentDocFiles = []string{"AGENTS.md", "agents.md", "agent.md", "AGENT.md", "CLIPPY.md"}

// SystemPrompt assembles the system message for a run. A non-empty override
// replaces the base persona, which is how subagents get their own prompts.
func SystemPrompt(cfg *config.Config, workDir, override string) string {
	var sb strings.Builder
	if override != "" {
		sb.WriteString(override)
	} else {
		sb.WriteString(basePrompt)
	}

	sb.WriteString(fmt.Sprintf("\n\nWorking directory: %s", workDir))
	if cfg != nil && cfg.Username != "" {
		sb.WriteString(fmt.Sprintf("\nYou are assisting %s.", cfg.Username))
	}

	if cfg != nil && len(cfg.Instructions) > 0 {
		sb.WriteString("\n\nUser instructions:\n")
		for _, inst := range cfg.Instructions {
			sb.WriteString("- ")
			sb.WriteString(inst)
			sb.WriteString("\n")
		}
	}

	if docs := projectDocs(workDir); docs != "" {
		sb.WriteString("\n\nPROJECT DOCUMENTATION:\n")
		sb.WriteString(docs)
	}

	return sb.String()
}

func projectDocs(workDir string) string {
	for _, name := range agentDocFiles {
		path := filepath.Join(workDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warn().Str("file", path).Err(err).Msg("skipping project documentation")
			}
			continue
		}
		return string(data)
	}
	return ""
}
