package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clippy-ai/clippy/internal/agent"
	"github.com/clippy-ai/clippy/internal/event"
)

var (
	runModel       string
	runAgentName   string
	runSession     string
	runContinue    bool
	runInteractive bool
	runYes         bool
	runFiles       []string
)

var runCmd = &cobra.Command{
	Use:   "run [message...]",
	Short: "Ask Clippy to do something",
	Long: `Run Clippy with a task. Without -i this is one-shot: Clippy works the
task to completion and exits.

Examples:
  clippy run "Fix the failing test in parser_test.go"
  clippy run --model anthropic/claude-sonnet-4-20250514 "Explain main.go"
  clippy run -c "Now add a test for that"
  clippy run -i`,
	RunE: runAgent,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (provider/model format)")
	runCmd.Flags().StringVar(&runAgentName, "agent", "", "Subagent type to run as")
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "Session ID to continue")
	runCmd.Flags().BoolVarP(&runContinue, "continue", "c", false, "Continue the most recent session")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Auto-approve all actions (use with caution!)")
	runCmd.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Interactive mode (REPL)")
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "File(s) to attach to the message")
}

func runAgent(cmd *cobra.Command, args []string) error {
	dir, err := resolveWorkDir()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := newApp(ctx, dir, runYes)
	if err != nil {
		return err
	}
	defer application.close()

	if runModel != "" {
		application.config.Model = runModel
	}

	stdin := bufio.NewReader(os.Stdin)
	unsubscribe := attachApprover(application, stdin, cmd.OutOrStdout())
	defer unsubscribe()

	message := strings.Join(args, " ")
	if attached, err := attachFiles(runFiles); err != nil {
		return err
	} else if attached != "" {
		message += attached
	}

	conversationID, err := resolveSession(ctx, application)
	if err != nil {
		return err
	}

	if runInteractive {
		return repl(ctx, application, stdin, cmd.OutOrStdout(), conversationID)
	}

	if message == "" {
		return fmt.Errorf("message required. Usage: clippy run \"your message\"")
	}
	return runOnce(ctx, application, cmd.OutOrStdout(), conversationID, message)
}

func runOnce(ctx context.Context, application *app, out io.Writer, conversationID, message string) error {
	result, err := application.agent.Run(ctx, conversationID, message, agent.RunOptions{
		Agent: runAgentName,
		Model: runModel,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result.Output)
	return nil
}

func repl(ctx context.Context, application *app, stdin *bufio.Reader, out io.Writer, conversationID string) error {
	fmt.Fprintln(out, "Clippy interactive mode. It looks like you're trying to get some work done!")
	fmt.Fprintln(out, "Commands: /exit /quit to leave, /reset to start a fresh conversation, /help for this message.")

	for {
		fmt.Fprint(out, "\n[You] > ")
		line, err := stdin.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "/reset":
			conversationID = ""
			fmt.Fprintln(out, "Conversation reset.")
			continue
		case "/help":
			fmt.Fprintln(out, "Commands: /exit /quit to leave, /reset to start a fresh conversation, /help for this message.")
			continue
		}

		result, err := application.agent.Run(ctx, conversationID, input, agent.RunOptions{
			Agent: runAgentName,
			Model: runModel,
		})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		conversationID = result.ConversationID
		fmt.Fprintf(out, "\n[Clippy] %s\n", result.Output)
	}
}

// attachApprover answers permission prompts on the terminal. Answers: y for
// once, a for always in this session, anything else rejects.
func attachApprover(application *app, stdin *bufio.Reader, out io.Writer) func() {
	return event.Subscribe(event.PermissionRequired, func(ev event.Event) {
		data, ok := ev.Data.(event.PermissionRequiredData)
		if !ok {
			return
		}
		fmt.Fprintf(out, "\nClippy wants to run: %s\n", data.Title)
		fmt.Fprint(out, "Allow? [y]es / [a]lways / [N]o: ")

		line, err := stdin.ReadString('\n')
		if err != nil {
			application.permissions.Respond(data.ID, "reject")
			return
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			application.permissions.Respond(data.ID, "once")
		case "a", "always":
			application.permissions.Respond(data.ID, "always")
		default:
			application.permissions.Respond(data.ID, "reject")
		}
	})
}

func attachFiles(files []string) (string, error) {
	if len(files) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", file, err)
		}
		sb.WriteString(fmt.Sprintf("\n\n--- File: %s ---\n%s", file, content))
	}
	return sb.String(), nil
}

// resolveSession picks the conversation to continue, if any.
func resolveSession(ctx context.Context, application *app) (string, error) {
	if runSession != "" {
		if _, err := application.agent.Store().Get(ctx, runSession); err != nil {
			return "", fmt.Errorf("session %s not found: %w", runSession, err)
		}
		return runSession, nil
	}
	if runContinue {
		conversations, err := application.agent.Store().List(ctx)
		if err != nil {
			return "", err
		}
		if len(conversations) == 0 {
			return "", fmt.Errorf("no previous sessions to continue")
		}
		return conversations[0].ID, nil
	}
	return "", nil
}
