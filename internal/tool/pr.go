package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const prManagerDescription = `Manages pull-request workflows across branches.

Actions:
- analyze: full impact analysis of source_branch against target_branch
- validate: check whether the branch is safe to merge
- stage: stage working-tree changes and optionally write a patch file
- impact_report: detailed per-branch impact report
- collision_check: detect overlapping changes with context branches`

// PRManagerTool implements PR workflow management on top of git.
type PRManagerTool struct {
	workDir string
}

// PRManagerInput represents the input for the pr_manager tool.
type PRManagerInput struct {
	Action          string   `json:"action"`
	SourceBranch    string   `json:"source_branch"`
	TargetBranch    string   `json:"target_branch"`
	ContextBranches []string `json:"context_branches,omitempty"`
	RepoPath        string   `json:"repo_path,omitempty"`
	GeneratePatch   bool     `json:"generate_patch,omitempty"`
}

// NewPRManagerTool creates a new pr_manager tool.
func NewPRManagerTool(workDir string) *PRManagerTool {
	return &PRManagerTool{workDir: workDir}
}

func (t *PRManagerTool) ID() string          { return "pr_manager" }
func (t *PRManagerTool) Description() string { return prManagerDescription }

func (t *PRManagerTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {
				"type": "string",
				"enum": ["analyze", "validate", "stage", "impact_report", "collision_check"],
				"description": "The PR management action to perform"
			},
			"source_branch": {
				"type": "string",
				"description": "The branch containing the changes"
			},
			"target_branch": {
				"type": "string",
				"description": "The branch the changes are destined for"
			},
			"context_branches": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Additional branches to consider for collisions"
			},
			"repo_path": {
				"type": "string",
				"description": "Path to the git repository (defaults to the working directory)"
			},
			"generate_patch": {
				"type": "boolean",
				"description": "For the stage action, also write a patch file of the staged changes"
			}
		},
		"required": ["action", "source_branch", "target_branch"]
	}`)
}

func (t *PRManagerTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params PRManagerInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.SourceBranch == "" || params.TargetBranch == "" {
		return nil, fmt.Errorf("source_branch and target_branch are required")
	}

	repo := t.workDir
	if params.RepoPath != "" {
		repo = resolvePath(params.RepoPath, t.workDir)
	}
	if _, err := os.Stat(filepath.Join(repo, ".git")); err != nil {
		return nil, fmt.Errorf("not a git repository: %s", repo)
	}

	g := gitRunner{ctx: ctx, repo: repo}

	var warnings []string
	if status, err := g.run("status", "--porcelain"); err == nil && status != "" {
		warnings = append(warnings, "Repository has uncommitted changes. Consider committing or stashing first.")
	}

	switch params.Action {
	case "analyze":
		return t.analyze(g, params, warnings)
	case "validate":
		return t.validate(g, params, warnings)
	case "stage":
		return t.stage(g, params, repo)
	case "impact_report":
		return t.impactReport(g, params, warnings)
	case "collision_check":
		return t.collisionCheck(g, params, warnings)
	default:
		return nil, fmt.Errorf("unknown action: %s", params.Action)
	}
}

func (t *PRManagerTool) analyze(g gitRunner, params PRManagerInput, warnings []string) (*Result, error) {
	changed, err := g.changedFiles(params.TargetBranch, params.SourceBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to diff branches: %w", err)
	}

	impacts := []BranchImpact{g.branchImpact(params.TargetBranch, params.SourceBranch)}
	var collisions []BranchCollision
	for _, branch := range params.ContextBranches {
		collisions = append(collisions, g.detectCollision(params.SourceBranch, branch))
		impacts = append(impacts, g.branchImpact(branch, params.SourceBranch))
	}
	recommendations := buildRecommendations(impacts, collisions)

	var sb strings.Builder
	fmt.Fprintf(&sb, "PR analysis: %s -> %s\n\n", params.SourceBranch, params.TargetBranch)
	fmt.Fprintf(&sb, "Changed files: %d\n", len(changed))
	for _, impact := range impacts {
		fmt.Fprintf(&sb, "Impact on %s: risk=%s files=%d lines=%d\n",
			impact.Branch, impact.RiskLevel, impact.FileCount, impact.LineCount)
	}
	for _, c := range collisions {
		fmt.Fprintf(&sb, "Collision with %s: risk=%s files=%d\n",
			c.Branch, c.CollisionRisk, len(c.ConflictingFiles))
	}
	appendWarnings(&sb, warnings)
	sb.WriteString("\nRecommendations:\n")
	for _, rec := range recommendations {
		fmt.Fprintf(&sb, "  - %s\n", rec)
	}

	return &Result{
		Title:  fmt.Sprintf("Analyzed PR %s -> %s", params.SourceBranch, params.TargetBranch),
		Output: sb.String(),
		Metadata: map[string]any{
			"action":          "analyze",
			"impacts":         impacts,
			"collisions":      collisions,
			"recommendations": recommendations,
			"warnings":        warnings,
		},
	}, nil
}

func (t *PRManagerTool) validate(g gitRunner, params PRManagerInput, warnings []string) (*Result, error) {
	var blocking []string

	if !g.branchExists(params.SourceBranch) {
		blocking = append(blocking, fmt.Sprintf("source branch %q not found", params.SourceBranch))
	}
	if !g.branchExists(params.TargetBranch) {
		blocking = append(blocking, fmt.Sprintf("target branch %q not found", params.TargetBranch))
	}

	if len(blocking) == 0 {
		// behind check: commits on target not reachable from source
		if behind, err := g.run("rev-list", "--count", params.SourceBranch+".."+params.TargetBranch); err == nil && behind != "0" && behind != "" {
			warnings = append(warnings, fmt.Sprintf("%s is %s commits behind %s. Rebase before merging.",
				params.SourceBranch, behind, params.TargetBranch))
		}

		impact := g.branchImpact(params.TargetBranch, params.SourceBranch)
		if impact.FileCount == 0 {
			blocking = append(blocking, "no changes between branches")
		}
		if impact.RiskLevel == "high" {
			warnings = append(warnings, "High-risk change volume. Request additional review.")
		}

		if conflicted, _ := g.mergeConflicts(params.TargetBranch, params.SourceBranch); conflicted {
			blocking = append(blocking, "Merge conflicts detected with target branch")
		}

		conflictedContexts := 0
		for _, branch := range params.ContextBranches {
			if !g.branchExists(branch) {
				continue
			}
			if conflicted, _ := g.mergeConflicts(branch, params.SourceBranch); conflicted {
				conflictedContexts++
			}
		}
		if conflictedContexts > 0 {
			warnings = append(warnings, fmt.Sprintf("Potential conflicts with %d context branches.", conflictedContexts))
		}
	}

	safe := len(blocking) == 0

	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation of %s -> %s: ", params.SourceBranch, params.TargetBranch)
	if safe {
		sb.WriteString("READY\n")
	} else {
		sb.WriteString("BLOCKED\n")
		for _, b := range blocking {
			fmt.Fprintf(&sb, "  blocking: %s\n", b)
		}
	}
	appendWarnings(&sb, warnings)

	return &Result{
		Title:  fmt.Sprintf("Validated %s -> %s", params.SourceBranch, params.TargetBranch),
		Output: sb.String(),
		Metadata: map[string]any{
			"action":   "validate",
			"safe":     safe,
			"blocking": blocking,
			"warnings": warnings,
		},
	}, nil
}

func (t *PRManagerTool) stage(g gitRunner, params PRManagerInput, repo string) (*Result, error) {
	if _, err := g.run("add", "-A"); err != nil {
		return nil, fmt.Errorf("failed to stage changes: %w", err)
	}

	staged, _ := g.run("diff", "--cached", "--name-only")
	files := 0
	if staged != "" {
		files = len(strings.Split(staged, "\n"))
	}

	var patchPath string
	if params.GeneratePatch && files > 0 {
		patch, err := g.run("diff", "--cached")
		if err == nil && patch != "" {
			dir := filepath.Join(repo, ".clippy", "patches")
			if err := os.MkdirAll(dir, 0o755); err == nil {
				patchPath = filepath.Join(dir, fmt.Sprintf("staged-%s.patch", time.Now().Format("20060102-150405")))
				os.WriteFile(patchPath, []byte(patch+"\n"), 0o644)
			}
		}
	}

	output := fmt.Sprintf("Staged %d files", files)
	if staged != "" {
		output += "\n" + staged
	}
	if patchPath != "" {
		output += fmt.Sprintf("\n\nPatch written to %s", patchPath)
	}

	return &Result{
		Title:  fmt.Sprintf("Staged %d files", files),
		Output: output,
		Metadata: map[string]any{
			"action": "stage",
			"files":  files,
			"patch":  patchPath,
		},
	}, nil
}

func (t *PRManagerTool) impactReport(g gitRunner, params PRManagerInput, warnings []string) (*Result, error) {
	branches := append([]string{params.TargetBranch}, params.ContextBranches...)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Impact report for %s\n\n", params.SourceBranch)

	impacts := make([]BranchImpact, 0, len(branches))
	for _, branch := range branches {
		impact := g.branchImpact(branch, params.SourceBranch)
		impacts = append(impacts, impact)
		fmt.Fprintf(&sb, "%s:\n  risk: %s\n  files: %d\n  lines: %d\n  areas: %s\n\n",
			branch, impact.RiskLevel, impact.FileCount, impact.LineCount,
			strings.Join(impact.AffectedAreas, ", "))
	}
	appendWarnings(&sb, warnings)

	return &Result{
		Title:  fmt.Sprintf("Impact report for %s", params.SourceBranch),
		Output: sb.String(),
		Metadata: map[string]any{
			"action":   "impact_report",
			"impacts":  impacts,
			"warnings": warnings,
		},
	}, nil
}

func (t *PRManagerTool) collisionCheck(g gitRunner, params PRManagerInput, warnings []string) (*Result, error) {
	branches := append([]string{params.TargetBranch}, params.ContextBranches...)

	collisions := make([]BranchCollision, 0, len(branches))
	severity := "low"
	for _, branch := range branches {
		c := g.detectCollision(params.SourceBranch, branch)
		collisions = append(collisions, c)
		if c.CollisionRisk == "high" || (c.CollisionRisk == "medium" && severity == "low") {
			severity = c.CollisionRisk
		}
	}
	if severity == "high" {
		warnings = append(warnings, "High collision severity detected. Coordinate with affected teams before proceeding.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Collision check for %s (severity: %s)\n\n", params.SourceBranch, severity)
	for _, c := range collisions {
		fmt.Fprintf(&sb, "%s: risk=%s\n", c.Branch, c.CollisionRisk)
		for _, file := range c.ConflictingFiles {
			fmt.Fprintf(&sb, "  %s\n", file)
		}
	}
	appendWarnings(&sb, warnings)

	return &Result{
		Title:  fmt.Sprintf("Collision check: %s", severity),
		Output: sb.String(),
		Metadata: map[string]any{
			"action":     "collision_check",
			"severity":   severity,
			"collisions": collisions,
			"warnings":   warnings,
		},
	}, nil
}

func appendWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	sb.WriteString("\nWarnings:\n")
	for _, w := range warnings {
		fmt.Fprintf(sb, "  - %s\n", w)
	}
}
