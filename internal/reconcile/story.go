package reconcile

import (
	"context"

	"github.com/steveyegge/pikpoint/internal/types"
)

// deleteStory removes a story; its tags and tasks go with it.
func (p *pass) deleteStory(ctx context.Context, story types.Story, reason string) error {
	p.log.Debug("deleting story", "story", story.ID, "text", story.Text, "reason", reason)
	err := p.call(ctx, "board.delete_story", func(ctx context.Context) error {
		return p.board.DeleteStory(ctx, p.project.ID, story.ID)
	})
	if err != nil {
		return err
	}
	p.stats.StoriesDeleted++
	return nil
}

func (p *pass) owner() *types.User {
	if p.opts.Owner == "" {
		return nil
	}
	return &types.User{UserName: p.opts.Owner}
}

// createStory builds the story of a project that has none yet.
func (p *pass) createStory(ctx context.Context, proj types.SourceProject) error {
	story := types.Story{
		Text:    StoryText(&proj, p.now, p.opts.DueSoon),
		Details: StoryDetails(&proj),
		Color:   p.opts.Color(&proj),
		Phase:   p.phases.Initial(proj.Status, proj.Completed),
		Owner:   p.owner(),
		Tasks:   initialTasks(proj.Tasks),
	}
	p.log.Debug("creating story", "project", proj.ID, "phase", story.Phase.Name, "tasks", len(story.Tasks))

	var created types.Story
	err := p.call(ctx, "board.create_story", func(ctx context.Context) error {
		var err error
		created, err = p.board.CreateStory(ctx, p.project.ID, story)
		return err
	})
	if err != nil {
		return err
	}
	p.stats.StoriesCreated++

	tags := TagsFor(&proj)
	if len(tags) == 0 {
		return nil
	}
	return p.reconcileTags(ctx, created, tags)
}

// updateStory reconciles one linked story against its live source project.
// A nil project means the source no longer has it.
func (p *pass) updateStory(ctx context.Context, story types.Story, proj *types.SourceProject) error {
	if proj == nil {
		return p.deleteStory(ctx, story, "source project gone")
	}
	if proj.Status == types.StatusDropped {
		return p.deleteStory(ctx, story, "source project dropped")
	}
	log := p.log.With("story", story.ID, "project", proj.ID)

	// Write-backs see the phase as it was when the pass started.
	current := *proj
	switch state := p.phases.Classify(story.Phase); {
	case state == StateInProgress && current.Status == types.StatusOnHold:
		log.Debug("reactivating source project", "phase", story.Phase.Name)
		err := p.call(ctx, "source.set_project_active", func(ctx context.Context) error {
			return p.source.SetProjectActive(ctx, current.ID)
		})
		if err != nil {
			return err
		}
		current = current.WithStatus(types.StatusActive)
		p.stats.ProjectsActivated++
	case (state == StateDone || state == StateArchive) && !current.Completed:
		log.Debug("completing source project", "phase", story.Phase.Name)
		err := p.call(ctx, "source.set_project_completed", func(ctx context.Context) error {
			return p.source.SetProjectCompleted(ctx, current.ID)
		})
		if err != nil {
			return err
		}
		// Completing a project takes it off hold.
		current = current.WithCompleted(true)
		if current.Status == types.StatusOnHold {
			current = current.WithStatus(types.StatusActive)
		}
		p.stats.ProjectsCompleted++
	}

	desired := story.
		WithText(StoryText(&current, p.now, p.opts.DueSoon)).
		WithDetails(StoryDetails(&current)).
		WithColor(p.opts.Color(&current)).
		WithPhase(p.phases.Target(current.Status, current.Completed, story.Phase))
	if p.opts.Owner != "" {
		desired = desired.WithOwner(p.owner())
	}

	if storyFieldsDiffer(story, desired, p.opts.Owner != "") {
		log.Debug("updating story", "phase", desired.Phase.Name, "color", desired.Color)
		err := p.call(ctx, "board.update_story", func(ctx context.Context) error {
			_, err := p.board.UpdateStory(ctx, p.project.ID, story.ID, desired)
			return err
		})
		if err != nil {
			return err
		}
		p.stats.StoriesUpdated++
	} else {
		p.stats.Skipped++
	}

	if err := p.reconcileTags(ctx, story, TagsFor(&current)); err != nil {
		return err
	}
	_, err := p.reconcileTasks(ctx, story, current)
	return err
}

func storyFieldsDiffer(current, desired types.Story, checkOwner bool) bool {
	if current.Text != desired.Text ||
		current.Details != desired.Details ||
		current.Color != desired.Color ||
		current.Phase.ID != desired.Phase.ID {
		return true
	}
	return checkOwner && current.OwnerName() != desired.OwnerName()
}
