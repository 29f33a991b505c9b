package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const gitAnalyzerDescription = `Analyzes git changes across branches for PR-level impact assessment.

Usage:
- Compares a feature branch against a base branch
- Optionally compares against additional branches to detect collisions
- Reports changed files, affected areas, risk levels, and safety recommendations`

const gitCommandTimeout = 30 * time.Second

// GitAnalyzerTool implements cross-branch change analysis.
type GitAnalyzerTool struct {
	workDir string
}

// GitAnalyzerInput represents the input for the git_analyzer tool.
type GitAnalyzerInput struct {
	BaseBranch      string   `json:"base_branch"`
	FeatureBranch   string   `json:"feature_branch"`
	CompareBranches []string `json:"compare_branches,omitempty"`
	RepoPath        string   `json:"repo_path,omitempty"`
}

// BranchImpact describes how the feature branch affects one target branch.
type BranchImpact struct {
	Branch        string   `json:"branch"`
	RiskLevel     string   `json:"risk_level"`
	AffectedAreas []string `json:"affected_areas"`
	FileCount     int      `json:"file_count"`
	LineCount     int      `json:"line_count"`
}

// BranchCollision describes overlapping changes between two branches.
type BranchCollision struct {
	Branch           string   `json:"branch"`
	CollisionRisk    string   `json:"collision_risk"`
	ConflictingFiles []string `json:"conflicting_files"`
}

// NewGitAnalyzerTool creates a new git_analyzer tool.
func NewGitAnalyzerTool(workDir string) *GitAnalyzerTool {
	return &GitAnalyzerTool{workDir: workDir}
}

func (t *GitAnalyzerTool) ID() string          { return "git_analyzer" }
func (t *GitAnalyzerTool) Description() string { return gitAnalyzerDescription }

func (t *GitAnalyzerTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"base_branch": {
				"type": "string",
				"description": "The base branch to compare against (e.g., 'main')"
			},
			"feature_branch": {
				"type": "string",
				"description": "The feature branch being analyzed"
			},
			"compare_branches": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Additional branches to check for collisions"
			},
			"repo_path": {
				"type": "string",
				"description": "Path to the git repository (defaults to the working directory)"
			}
		},
		"required": ["base_branch", "feature_branch"]
	}`)
}

func (t *GitAnalyzerTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GitAnalyzerInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.BaseBranch == "" || params.FeatureBranch == "" {
		return nil, fmt.Errorf("base_branch and feature_branch are required")
	}

	repo := t.workDir
	if params.RepoPath != "" {
		repo = resolvePath(params.RepoPath, t.workDir)
	}
	if _, err := os.Stat(filepath.Join(repo, ".git")); err != nil {
		return nil, fmt.Errorf("not a git repository: %s", repo)
	}

	g := gitRunner{ctx: ctx, repo: repo}

	allBranches := append([]string{params.BaseBranch, params.FeatureBranch}, params.CompareBranches...)
	for _, branch := range allBranches {
		if !g.branchExists(branch) {
			return nil, fmt.Errorf("branch %q not found in repository", branch)
		}
	}

	changedFiles, err := g.changedFiles(params.BaseBranch, params.FeatureBranch)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s...%s: %w", params.BaseBranch, params.FeatureBranch, err)
	}

	impacts := []BranchImpact{g.branchImpact(params.BaseBranch, params.FeatureBranch)}
	var collisions []BranchCollision
	for _, compare := range params.CompareBranches {
		collisions = append(collisions, g.detectCollision(params.FeatureBranch, compare))
		impacts = append(impacts, g.branchImpact(compare, params.FeatureBranch))
	}

	recommendations := buildRecommendations(impacts, collisions)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis of %s against %s\n\n", params.FeatureBranch, params.BaseBranch)
	fmt.Fprintf(&sb, "Changed files (%d):\n", len(changedFiles))
	for file, status := range changedFiles {
		fmt.Fprintf(&sb, "  %s %s\n", status, file)
	}
	sb.WriteString("\nImpacts:\n")
	for _, impact := range impacts {
		fmt.Fprintf(&sb, "  %s: risk=%s files=%d lines=%d areas=%s\n",
			impact.Branch, impact.RiskLevel, impact.FileCount, impact.LineCount,
			strings.Join(impact.AffectedAreas, ","))
	}
	if len(collisions) > 0 {
		sb.WriteString("\nCollisions:\n")
		for _, c := range collisions {
			fmt.Fprintf(&sb, "  %s: risk=%s conflicting=%d\n",
				c.Branch, c.CollisionRisk, len(c.ConflictingFiles))
		}
	}
	if len(recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, rec := range recommendations {
			fmt.Fprintf(&sb, "  - %s\n", rec)
		}
	}

	return &Result{
		Title:  fmt.Sprintf("Analyzed %s vs %s", params.FeatureBranch, params.BaseBranch),
		Output: sb.String(),
		Metadata: map[string]any{
			"baseBranch":      params.BaseBranch,
			"featureBranch":   params.FeatureBranch,
			"changedFiles":    len(changedFiles),
			"impacts":         impacts,
			"collisions":      collisions,
			"recommendations": recommendations,
		},
	}, nil
}

// gitRunner wraps git command execution against one repository.
type gitRunner struct {
	ctx  context.Context
	repo string
}

func (g gitRunner) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(g.ctx, gitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repo
	output, err := cmd.Output()
	return strings.TrimSpace(string(output)), err
}

func (g gitRunner) branchExists(branch string) bool {
	if _, err := g.run("rev-parse", "--verify", "origin/"+branch); err == nil {
		return true
	}
	_, err := g.run("rev-parse", "--verify", branch)
	return err == nil
}

// changedFiles returns path to status letter for base...feature.
func (g gitRunner) changedFiles(base, feature string) (map[string]string, error) {
	output, err := g.run("diff", base+"..."+feature, "--name-status")
	if err != nil {
		return nil, err
	}

	changes := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(strings.TrimSpace(line), "\t")
		if len(parts) >= 2 {
			changes[parts[1]] = parts[0]
		}
	}
	return changes, nil
}

var shortstatPattern = regexp.MustCompile(`(\d+) insertions?\(\+\)|(\d+) deletions?\(-\)`)

func (g gitRunner) branchImpact(target, feature string) BranchImpact {
	impact := BranchImpact{Branch: target, RiskLevel: "low"}

	if output, err := g.run("diff", target+"..."+feature, "--name-only"); err == nil && output != "" {
		files := strings.Split(output, "\n")
		impact.FileCount = len(files)
		impact.AffectedAreas = classifyFileChanges(files)
	}

	if output, err := g.run("diff", target+"..."+feature, "--shortstat"); err == nil {
		for _, m := range shortstatPattern.FindAllStringSubmatch(output, -1) {
			for _, group := range m[1:] {
				if group != "" {
					var n int
					fmt.Sscanf(group, "%d", &n)
					impact.LineCount += n
				}
			}
		}
	}

	if impact.FileCount > 50 || impact.LineCount > 1000 {
		impact.RiskLevel = "high"
	} else if impact.FileCount > 10 || impact.LineCount > 200 {
		impact.RiskLevel = "medium"
	}
	return impact
}

// mergeConflicts runs a trial merge of feature into target without touching
// the working tree. markers counts conflict sections in the merge output.
func (g gitRunner) mergeConflicts(target, feature string) (conflicted bool, markers int) {
	base, err := g.run("merge-base", target, feature)
	if err != nil || base == "" {
		return false, 0
	}
	output, err := g.run("merge-tree", base, target, feature)
	if err != nil {
		return false, 0
	}
	return strings.Contains(output, "<<<<<<<"), strings.Count(output, ">>>>>>>")
}

func (g gitRunner) detectCollision(branch1, branch2 string) BranchCollision {
	collision := BranchCollision{Branch: branch2, CollisionRisk: "low"}

	files1, err1 := g.changedBranchFiles(branch1)
	files2, err2 := g.changedBranchFiles(branch2)
	if err1 != nil || err2 != nil {
		return collision
	}

	for file := range files1 {
		if _, ok := files2[file]; ok {
			collision.ConflictingFiles = append(collision.ConflictingFiles, file)
		}
	}
	sort.Strings(collision.ConflictingFiles)

	switch {
	case len(collision.ConflictingFiles) > 5:
		collision.CollisionRisk = "high"
	case len(collision.ConflictingFiles) > 0:
		collision.CollisionRisk = "medium"
	}

	if conflicted, markers := g.mergeConflicts(branch2, branch1); conflicted {
		if markers > 5 {
			collision.CollisionRisk = "high"
		} else if collision.CollisionRisk == "low" {
			collision.CollisionRisk = "medium"
		}
	}
	return collision
}

// changedBranchFiles returns the files a branch changed relative to its merge
// base with HEAD.
func (g gitRunner) changedBranchFiles(branch string) (map[string]bool, error) {
	base, err := g.run("merge-base", "HEAD", branch)
	if err != nil {
		return nil, err
	}
	output, err := g.run("diff", base, branch, "--name-only")
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files[line] = true
		}
	}
	return files, nil
}

// classifyFileChanges buckets changed files into coarse areas.
func classifyFileChanges(files []string) []string {
	areas := make(map[string]bool)
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		switch {
		case strings.Contains(file, "test"):
			areas["tests"] = true
		case strings.HasSuffix(file, ".md") || strings.Contains(file, "docs/"):
			areas["docs"] = true
		case strings.HasSuffix(file, ".json") || strings.HasSuffix(file, ".yaml") ||
			strings.HasSuffix(file, ".yml") || strings.HasSuffix(file, ".toml"):
			areas["config"] = true
		case strings.Contains(file, "api") || strings.Contains(file, "handler"):
			areas["api"] = true
		default:
			areas["core"] = true
		}
	}

	result := make([]string, 0, len(areas))
	for area := range areas {
		result = append(result, area)
	}
	sort.Strings(result)
	return result
}

func buildRecommendations(impacts []BranchImpact, collisions []BranchCollision) []string {
	var recs []string
	for _, impact := range impacts {
		if impact.RiskLevel == "high" {
			recs = append(recs, fmt.Sprintf("Large change set against %s. Consider splitting into smaller PRs.", impact.Branch))
		}
	}
	for _, c := range collisions {
		if c.CollisionRisk != "low" {
			recs = append(recs, fmt.Sprintf("Branch %s touches %d of the same files. Coordinate before merging.", c.Branch, len(c.ConflictingFiles)))
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "No significant risks detected.")
	}
	return recs
}
