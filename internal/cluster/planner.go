// Package cluster plans a sort without rules: files are grouped by how
// similar their names are and each group is named after what its files
// share.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0xjjjjjj/sortbox/internal/organizer"
)

// ErrUnavailable means the planner is missing its embedder or namer.
var ErrUnavailable = errors.New("cluster planner unavailable")

type Options struct {
	Ignore        []string
	MaxIterations int
	Logger        *slog.Logger
}

type Planner struct {
	embedder Embedder
	namer    Namer
	opts     Options
	logger   *slog.Logger
}

var _ organizer.Planner = (*Planner)(nil)

func New(embedder Embedder, namer Namer, opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Planner{embedder: embedder, namer: namer, opts: opts, logger: logger}
}

func (p *Planner) Plan(ctx context.Context, root string) (*organizer.Plan, error) {
	switch {
	case p.embedder == nil:
		return nil, fmt.Errorf("%w: no embedder configured", ErrUnavailable)
	case p.namer == nil:
		return nil, fmt.Errorf("%w: no namer configured", ErrUnavailable)
	}

	files, err := organizer.EligibleFiles(root, p.opts.Ignore)
	if err != nil {
		return nil, err
	}
	plan := organizer.NewPlan(root)
	if len(files) == 0 {
		return plan, nil
	}

	vecs := make([][]float64, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := p.embedder.Embed(ctx, f.Name)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", f.Name, err)
		}
		vecs[i] = vec
	}

	k := ClusterCount(len(files))
	labels := KMeans(vecs, k, p.opts.MaxIterations)
	p.logger.Debug("clustered files", "files", len(files), "clusters", k)

	// Name clusters in order of their first file so names are stable.
	members := make(map[int][]string)
	var order []int
	for i, f := range files {
		if _, ok := members[labels[i]]; !ok {
			order = append(order, labels[i])
		}
		members[labels[i]] = append(members[labels[i]], f.Name)
	}

	folders := make(map[int]string, len(order))
	used := make(map[string]bool)
	for n, label := range order {
		name, err := p.namer.Name(ctx, members[label])
		if err != nil {
			p.logger.Warn("naming cluster failed", "cluster", n+1, "error", err)
			name = ""
		}
		if name == "" {
			name = fmt.Sprintf("Group%d", n+1)
		}
		folders[label] = unique(SafeFolder(name), used)
	}

	for i, f := range files {
		plan.Add(organizer.FilePlan{Source: f.Path, Folder: folders[labels[i]], Size: f.Size})
	}
	return plan, nil
}

func unique(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	used[candidate] = true
	return candidate
}
