package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/steveyegge/pikpoint/internal/policy"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/factory"
	"github.com/steveyegge/pikpoint/internal/timeparsing"
	"github.com/steveyegge/pikpoint/internal/types"
)

func invalid(format string, args ...any) error {
	return &reconcile.ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks everything that can be checked without the network.
func (c *Config) Validate() error {
	if c.Board.Project == "" {
		return invalid("%s is required", KeyBoardProject)
	}
	if c.Board.PageSize <= 0 {
		return invalid("%s must be positive, got %d", KeyBoardPageSize, c.Board.PageSize)
	}
	if c.Board.MaxRetries < 0 {
		return invalid("%s must not be negative", KeyBoardMaxRetries)
	}
	if c.Board.RequestsPerSecond < 0 {
		return invalid("%s must not be negative", KeyBoardRate)
	}
	if !slices.Contains(factory.Drivers, c.Source.Driver) {
		return invalid("unknown %s %q (want one of %v)", KeySourceDriver, c.Source.Driver, factory.Drivers)
	}
	if c.Source.Driver == factory.DriverMySQL && c.Source.DSN == "" {
		return invalid("%s is required for the mysql driver", KeySourceDSN)
	}
	if c.Source.Driver != factory.DriverMySQL && c.Source.Path == "" {
		return invalid("%s is required for the %s driver", KeySourcePath, c.Source.Driver)
	}
	if c.Sync.Interval <= 0 {
		return invalid("%s must be positive, got %s", KeySyncInterval, c.Sync.Interval)
	}
	if c.Sync.CallTimeout < 0 {
		return invalid("%s must not be negative", KeySyncCallTimeout)
	}
	for _, s := range c.Select.SkipStatuses {
		if !types.ProjectStatus(s).IsValid() {
			return invalid("%s: unknown status %q", KeySkipStatuses, s)
		}
	}
	now := time.Now()
	if _, err := c.DueSoonWindow(now); err != nil {
		return &reconcile.ConfigError{Reason: KeySyncDueSoon, Err: err}
	}
	if _, err := c.Selection(now); err != nil {
		return &reconcile.ConfigError{Reason: KeyStartBefore, Err: err}
	}
	if _, err := c.ColorPicker(); err != nil {
		return &reconcile.ConfigError{Reason: "colors", Err: err}
	}
	return nil
}

// DueSoonWindow parses sync.due_soon.
func (c *Config) DueSoonWindow(now time.Time) (time.Duration, error) {
	return timeparsing.ParseWindow(c.Sync.DueSoon, now)
}

// Selection builds the project selection policy, resolving start_before
// against now.
func (c *Config) Selection(now time.Time) (policy.Selection, error) {
	sel := policy.Selection{SkipSingleActionLists: c.Select.SkipSingleActionLists}
	for _, s := range c.Select.SkipStatuses {
		sel.SkipStatuses = append(sel.SkipStatuses, types.ProjectStatus(s))
	}
	if c.Select.StartBefore != "" {
		t, err := timeparsing.ParseRelativeTime(c.Select.StartBefore, now)
		if err != nil {
			return sel, err
		}
		sel.StartBefore = t
	}
	return sel, nil
}

// ColorPicker builds the story color rules.
func (c *Config) ColorPicker() (reconcile.ColorPicker, error) {
	return policy.Colors(types.Color(c.Colors.Default), c.Colors.Rules)
}

// SourceOptions returns the options for factory.Open.
func (c *Config) SourceOptions() factory.Options {
	return factory.Options{Driver: c.Source.Driver, Path: c.Source.Path, DSN: c.Source.DSN}
}
