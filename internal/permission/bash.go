package permission

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// BashCommand is one simple command extracted from a shell command line.
type BashCommand struct {
	Name       string   // command name, e.g. "git"
	Args       []string // remaining arguments
	Subcommand string   // first non-flag argument, e.g. "commit"
}

// ParseBashCommand parses a shell command line and returns every simple
// command it invokes, including those behind pipes, &&, and subshells.
func ParseBashCommand(command string) ([]BashCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var commands []BashCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if cmd := extractCommand(call); cmd != nil {
				commands = append(commands, *cmd)
			}
		}
		return true
	})
	return commands, nil
}

func extractCommand(call *syntax.CallExpr) *BashCommand {
	if len(call.Args) == 0 {
		return nil
	}

	cmd := &BashCommand{Name: wordToString(call.Args[0])}
	if cmd.Name == "" {
		return nil
	}

	for _, arg := range call.Args[1:] {
		argStr := wordToString(arg)
		cmd.Args = append(cmd.Args, argStr)
		if cmd.Subcommand == "" && !strings.HasPrefix(argStr, "-") {
			cmd.Subcommand = argStr
		}
	}
	return cmd
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			// Command substitution is dynamic; keep a marker so it never
			// matches an allow pattern literally.
			sb.WriteString("$()")
		}
	}
	return sb.String()
}

// MatchBashPattern finds the decision for a command, trying the most specific
// pattern first: "git commit *", then "git *", then "git", then "*".
func MatchBashPattern(cmd BashCommand, patterns map[string]Decision) Decision {
	if cmd.Subcommand != "" {
		if d, ok := patterns[cmd.Name+" "+cmd.Subcommand+" *"]; ok {
			return d
		}
	}
	if d, ok := patterns[cmd.Name+" *"]; ok {
		return d
	}
	if d, ok := patterns[cmd.Name]; ok {
		return d
	}
	if d, ok := patterns["*"]; ok {
		return d
	}
	return Ask
}

// BuildPattern derives the approval pattern for a command: "git commit *"
// when a subcommand exists, otherwise "ls *".
func BuildPattern(cmd BashCommand) string {
	if cmd.Subcommand != "" {
		return cmd.Name + " " + cmd.Subcommand + " *"
	}
	return cmd.Name + " *"
}

// BuildPatterns derives deduplicated approval patterns for a command list.
func BuildPatterns(commands []BashCommand) []string {
	seen := make(map[string]bool)
	var patterns []string
	for _, cmd := range commands {
		p := BuildPattern(cmd)
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}
	return patterns
}
