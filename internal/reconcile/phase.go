package reconcile

import (
	"fmt"
	"sort"

	"github.com/steveyegge/pikpoint/internal/types"
)

// MinPhases is the smallest workflow the phase policy can work with:
// backlog, ready, one in-progress column, done and archive.
const MinPhases = 5

// PhaseState is the role a board phase plays in the progression policy.
type PhaseState int

const (
	StateBacklog PhaseState = iota
	StateReady
	StateInProgress
	StateDone
	StateArchive
)

func (s PhaseState) String() string {
	switch s {
	case StateBacklog:
		return "backlog"
	case StateReady:
		return "ready"
	case StateInProgress:
		return "in-progress"
	case StateDone:
		return "done"
	case StateArchive:
		return "archive"
	}
	return fmt.Sprintf("PhaseState(%d)", int(s))
}

// PhaseSet names the distinguished phases of one board project. It is resolved
// once per pass by ParsePhases.
type PhaseSet struct {
	Backlog         types.Phase
	Ready           types.Phase
	FirstInProgress types.Phase
	Done            types.Phase
	Archive         types.Phase

	all []types.Phase
}

// ParsePhases orders phases by index and assigns roles by position: first is
// backlog, second ready, third the first in-progress phase, next-to-last done
// and last archive.
func ParsePhases(phases []types.Phase) (*PhaseSet, error) {
	if len(phases) < MinPhases {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("board project has %d phases, need at least %d (backlog, ready, in progress, done, archive)", len(phases), MinPhases),
		}
	}
	sorted := append([]types.Phase(nil), phases...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	seen := make(map[int64]bool, len(sorted))
	for _, p := range sorted {
		if seen[p.ID] {
			return nil, &ConfigError{Reason: fmt.Sprintf("phase id %d appears twice", p.ID)}
		}
		seen[p.ID] = true
	}

	n := len(sorted)
	return &PhaseSet{
		Backlog:         sorted[0],
		Ready:           sorted[1],
		FirstInProgress: sorted[2],
		Done:            sorted[n-2],
		Archive:         sorted[n-1],
		all:             sorted,
	}, nil
}

// All returns the phases in workflow order.
func (ps *PhaseSet) All() []types.Phase {
	return append([]types.Phase(nil), ps.all...)
}

// Classify returns the role of a phase. Phases not known to the set are
// treated as in progress so they are never pulled backward.
func (ps *PhaseSet) Classify(p types.Phase) PhaseState {
	switch p.ID {
	case ps.Backlog.ID:
		return StateBacklog
	case ps.Ready.ID:
		return StateReady
	case ps.Done.ID:
		return StateDone
	case ps.Archive.ID:
		return StateArchive
	}
	return StateInProgress
}

// IsInProgress reports whether a story in phase p is being worked on.
func (ps *PhaseSet) IsInProgress(p types.Phase) bool {
	return ps.Classify(p) == StateInProgress
}

// IsCompleted reports whether phase p is done or archive.
func (ps *PhaseSet) IsCompleted(p types.Phase) bool {
	s := ps.Classify(p)
	return s == StateDone || s == StateArchive
}

// Target returns the phase a story should be in, given the source project's
// status and completion and the story's current phase. Rules, first match wins:
//
//  1. on hold: stay in ready if already there, otherwise backlog
//  2. completed: stay in done or archive, otherwise done
//  3. active: backlog advances to ready, anything else stays
//
// Target(Target(x)) == Target(x), and the result is never earlier than current
// except through rule 1.
func (ps *PhaseSet) Target(status types.ProjectStatus, completed bool, current types.Phase) types.Phase {
	state := ps.Classify(current)
	switch {
	case status == types.StatusOnHold:
		if state == StateReady {
			return current
		}
		return ps.Backlog
	case completed:
		if state == StateDone || state == StateArchive {
			return current
		}
		return ps.Done
	default:
		if state == StateBacklog {
			return ps.Ready
		}
		return current
	}
}

// Initial returns the phase of a newly created story: backlog when on hold,
// ready when active, done when completed.
func (ps *PhaseSet) Initial(status types.ProjectStatus, completed bool) types.Phase {
	return ps.Target(status, completed, ps.Backlog)
}
