package board

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

var _ reconcile.Board = (*Client)(nil)

func projectPath(projectID int64, parts ...string) string {
	return "projects/" + strconv.FormatInt(projectID, 10) + strings.Join(append([]string{""}, parts...), "/")
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// ListProjects returns the projects visible to the API key, optionally
// filtered by exact name.
func (c *Client) ListProjects(ctx context.Context, name string) ([]types.BoardProject, error) {
	params := url.Values{}
	if name != "" {
		params.Set("where", "name:"+name)
	}
	raw, err := list[Project](ctx, c, "projects", params)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	out := make([]types.BoardProject, 0, len(raw))
	for _, p := range raw {
		if name != "" && p.Name != name {
			continue
		}
		out = append(out, projectToDomain(p))
	}
	return out, nil
}

// ResolveProject looks the reference up as a numeric ID first, then by name.
func (c *Client) ResolveProject(ctx context.Context, idOrName string) (*types.BoardProject, error) {
	if n, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		var p Project
		err := c.request(ctx, http.MethodGet, projectPath(n), nil, &p)
		if err == nil {
			out := projectToDomain(p)
			return &out, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return nil, fmt.Errorf("failed to get project %d: %w", n, err)
		}
	}

	found, err := c.ListProjects(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("project %q: %w", idOrName, types.ErrProjectNotFound)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("project %q matches %d projects: %w", idOrName, len(found), types.ErrAmbiguousProject)
	}
}

func (c *Client) ListPhases(ctx context.Context, projectID int64) ([]types.Phase, error) {
	raw, err := list[Phase](ctx, c, projectPath(projectID, "phases"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	out := make([]types.Phase, 0, len(raw))
	for _, p := range raw {
		out = append(out, phaseToDomain(p))
	}
	return out, nil
}

func (c *Client) ListStories(ctx context.Context, projectID int64, q reconcile.StoryQuery) ([]types.Story, error) {
	with := []string{"details"}
	if q.WithTags {
		with = append(with, "tags")
	}
	if q.WithTasks {
		with = append(with, "tasks")
	}
	params := url.Values{}
	params.Set("with", strings.Join(with, ","))

	raw, err := list[Story](ctx, c, projectPath(projectID, "stories"), params)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	out := make([]types.Story, 0, len(raw))
	for _, s := range raw {
		out = append(out, storyToDomain(s))
	}
	return out, nil
}

func (c *Client) CreateStory(ctx context.Context, projectID int64, s types.Story) (types.Story, error) {
	var created Story
	if err := c.request(ctx, http.MethodPost, projectPath(projectID, "stories"), storyFromDomain(s), &created); err != nil {
		return types.Story{}, fmt.Errorf("failed to create story: %w", err)
	}
	return storyToDomain(created), nil
}

func (c *Client) UpdateStory(ctx context.Context, projectID, storyID int64, s types.Story) (types.Story, error) {
	body := storyFromDomain(s)
	body.Tasks = nil
	var updated Story
	if err := c.request(ctx, http.MethodPut, projectPath(projectID, "stories", id(storyID)), body, &updated); err != nil {
		return types.Story{}, fmt.Errorf("failed to update story %d: %w", storyID, err)
	}
	return storyToDomain(updated), nil
}

func (c *Client) DeleteStory(ctx context.Context, projectID, storyID int64) error {
	if err := c.request(ctx, http.MethodDelete, projectPath(projectID, "stories", id(storyID)), nil, nil); err != nil {
		return fmt.Errorf("failed to delete story %d: %w", storyID, err)
	}
	return nil
}

func (c *Client) ReplaceTags(ctx context.Context, projectID, storyID int64, names []string) error {
	if names == nil {
		names = []string{}
	}
	if err := c.request(ctx, http.MethodPut, projectPath(projectID, "stories", id(storyID), "tags"), names, nil); err != nil {
		return fmt.Errorf("failed to replace tags of story %d: %w", storyID, err)
	}
	return nil
}

func (c *Client) ListTags(ctx context.Context, projectID int64) ([]types.Tag, error) {
	raw, err := list[Tag](ctx, c, projectPath(projectID, "tags"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	out := make([]types.Tag, 0, len(raw))
	for _, t := range raw {
		out = append(out, types.Tag{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

func (c *Client) DeleteTag(ctx context.Context, projectID, tagID int64) error {
	if err := c.request(ctx, http.MethodDelete, projectPath(projectID, "tags", id(tagID)), nil, nil); err != nil {
		return fmt.Errorf("failed to delete tag %d: %w", tagID, err)
	}
	return nil
}

func (c *Client) CreateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	var created Task
	body := taskFromDomain(t)
	body.ID = 0
	if err := c.request(ctx, http.MethodPost, projectPath(projectID, "stories", id(storyID), "tasks"), body, &created); err != nil {
		return types.BoardTask{}, fmt.Errorf("failed to create task in story %d: %w", storyID, err)
	}
	return taskToDomain(created), nil
}

func (c *Client) UpdateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	var updated Task
	path := projectPath(projectID, "stories", id(storyID), "tasks", id(t.ID))
	if err := c.request(ctx, http.MethodPut, path, taskFromDomain(t), &updated); err != nil {
		return types.BoardTask{}, fmt.Errorf("failed to update task %d: %w", t.ID, err)
	}
	return taskToDomain(updated), nil
}

func (c *Client) DeleteTask(ctx context.Context, projectID, storyID, taskID int64) error {
	path := projectPath(projectID, "stories", id(storyID), "tasks", id(taskID))
	if err := c.request(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}
	return nil
}

func (c *Client) ReorderTasks(ctx context.Context, projectID, storyID int64, taskIDs []int64) ([]types.BoardTask, error) {
	var tasks []Task
	if err := c.request(ctx, http.MethodPut, projectPath(projectID, "stories", id(storyID), "tasks"), taskIDs, &tasks); err != nil {
		return nil, fmt.Errorf("failed to reorder tasks of story %d: %w", storyID, err)
	}
	out := make([]types.BoardTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToDomain(t))
	}
	return out, nil
}
