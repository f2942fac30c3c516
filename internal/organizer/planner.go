package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/0xjjjjjj/sortbox/internal/rules"
	"github.com/0xjjjjjj/sortbox/internal/scanner"
)

var ErrInvalidRoot = errors.New("root is not a directory")

// Planner turns a root folder into a move plan. Nothing on disk changes
// while planning.
type Planner interface {
	Plan(ctx context.Context, root string) (*Plan, error)
}

// FilePlan moves Source into root/Folder. The final file name is picked
// at execution time.
type FilePlan struct {
	Source string `json:"source"`
	Folder string `json:"folder"`
	Size   int64  `json:"size"`
}

type Plan struct {
	Root     string                `json:"root"`
	Files    []FilePlan            `json:"files"`
	ByFolder map[string][]FilePlan `json:"by_folder"`
}

func NewPlan(root string) *Plan {
	return &Plan{Root: root, ByFolder: make(map[string][]FilePlan)}
}

func (p *Plan) Add(fp FilePlan) {
	p.Files = append(p.Files, fp)
	p.ByFolder[fp.Folder] = append(p.ByFolder[fp.Folder], fp)
}

func (p *Plan) Empty() bool { return len(p.Files) == 0 }

// Folders lists destination folder names, sorted.
func (p *Plan) Folders() []string {
	folders := make([]string, 0, len(p.ByFolder))
	for f := range p.ByFolder {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	return folders
}

// RulePlanner classifies files by extension through a rules table.
type RulePlanner struct {
	table  *rules.Table
	ignore []string
}

func NewRulePlanner(table *rules.Table, ignore []string) *RulePlanner {
	return &RulePlanner{table: table, ignore: ignore}
}

func (m *RulePlanner) Match(filename string) string {
	return m.table.ResolveName(filename)
}

func (m *RulePlanner) Plan(ctx context.Context, root string) (*Plan, error) {
	files, err := EligibleFiles(root, m.ignore)
	if err != nil {
		return nil, err
	}

	plan := NewPlan(root)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		plan.Add(FilePlan{Source: f.Path, Folder: m.Match(f.Name), Size: f.Size})
	}
	return plan, nil
}

// EligibleFiles lists the regular files directly under root, skipping
// names matched by any ignore glob. Invalid globs match nothing.
func EligibleFiles(root string, ignore []string) ([]scanner.Entry, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: no folder selected", ErrInvalidRoot)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, root)
	}

	entries, err := scanner.ListTopLevel(root)
	if err != nil {
		return nil, err
	}

	var files []scanner.Entry
	for _, e := range scanner.Files(entries) {
		if ignored(ignore, e.Name) {
			continue
		}
		files = append(files, e)
	}
	return files, nil
}

func ignored(patterns []string, name string) bool {
	for _, p := range patterns {
		matched, err := doublestar.Match(p, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}
