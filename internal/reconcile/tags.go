package reconcile

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/steveyegge/pikpoint/internal/types"
)

// TagsFor derives a project's tag names: the lower-cased, trimmed union of the
// contexts of all its tasks, sorted.
func TagsFor(p *types.SourceProject) []string {
	set := make(map[string]struct{})
	for _, t := range p.Tasks {
		for _, c := range t.Contexts {
			name := strings.ToLower(strings.TrimSpace(c))
			if name == "" {
				continue
			}
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// tagUsage accumulates every tag name assigned to any story during a pass.
type tagUsage map[string]struct{}

func (u tagUsage) add(names []string) {
	for _, n := range names {
		u[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
}

func (u tagUsage) has(name string) bool {
	_, ok := u[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func sameTagSet(current []types.Tag, desired []string) bool {
	have := make([]string, 0, len(current))
	for _, t := range current {
		have = append(have, strings.ToLower(strings.TrimSpace(t.Name)))
	}
	sort.Strings(have)
	have = slices.Compact(have)
	return slices.Equal(have, desired)
}

// reconcileTags replaces the story's tags when its name set differs from the
// desired one. The desired names are recorded as used either way.
func (p *pass) reconcileTags(ctx context.Context, story types.Story, desired []string) error {
	p.used.add(desired)
	if sameTagSet(story.Tags, desired) {
		return nil
	}
	p.log.Debug("replacing story tags", "story", story.ID, "tags", desired)
	err := p.call(ctx, "board.replace_tags", func(ctx context.Context) error {
		return p.board.ReplaceTags(ctx, p.project.ID, story.ID, desired)
	})
	if err != nil {
		return err
	}
	p.stats.TagsReplaced++
	return nil
}

// pruneTags deletes every project tag no story was assigned during the pass.
func (p *pass) pruneTags(ctx context.Context) error {
	var tags []types.Tag
	err := p.call(ctx, "board.list_tags", func(ctx context.Context) error {
		var err error
		tags, err = p.board.ListTags(ctx, p.project.ID)
		return err
	})
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if p.used.has(tag.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.log.Debug("pruning unused tag", slog.Int64("tag", tag.ID), slog.String("name", tag.Name))
		err := p.call(ctx, "board.delete_tag", func(ctx context.Context) error {
			return p.board.DeleteTag(ctx, p.project.ID, tag.ID)
		})
		if err != nil {
			return err
		}
		p.stats.TagsPruned++
	}
	return nil
}
