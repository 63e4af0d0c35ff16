package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cdia2025/cheque-app/internal/domain"
)

// Session is one staff member's working context: the active roster and the
// snapshot last fetched for it. Each operator or request owns its own
// Session; nothing here is shared process-wide.
type Session struct {
	rosters  *RosterService
	staff    string
	snapshot domain.Roster
	loadedAt time.Time
}

// NewSession starts a session for the named staff member with no roster
// selected.
func NewSession(rosters *RosterService, staff string) *Session {
	return &Session{rosters: rosters, staff: strings.TrimSpace(staff)}
}

// Staff returns the acting staff member's name.
func (s *Session) Staff() string { return s.staff }

// Roster returns the active roster name, or "" if none is selected.
func (s *Session) Roster() string { return s.snapshot.Name }

// Snapshot returns the last fetched roster. It can be stale: the store may
// have changed since LoadedAt.
func (s *Session) Snapshot() domain.Roster { return s.snapshot }

// LoadedAt returns when the snapshot was fetched.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// Select makes name the active roster and fetches its snapshot.
func (s *Session) Select(ctx context.Context, name string) error {
	roster, err := s.rosters.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("service.Session.Select: %w", err)
	}
	s.snapshot = roster
	s.loadedAt = time.Now()
	return nil
}

// Refresh refetches the active roster.
func (s *Session) Refresh(ctx context.Context) error {
	if s.snapshot.Name == "" {
		return fmt.Errorf("service.Session.Refresh: %w: no roster selected", domain.ErrValidation)
	}
	return s.Select(ctx, s.snapshot.Name)
}

// Candidates returns the snapshot rows t may be applied to: the rows staff
// are offered when choosing whom to transition.
func (s *Session) Candidates(t domain.Transition) []domain.Recipient {
	out := []domain.Recipient{}
	for _, r := range s.snapshot.Recipients {
		if t.Allows(domain.Classify(r)) {
			out = append(out, r)
		}
	}
	return out
}

// Pick returns the snapshot rows for ids, in the order given. Ids the
// snapshot does not hold come back canonicalised in unloaded; the sync
// engine reports them without checking a precondition against made-up data.
func (s *Session) Pick(ids []string) (rows []domain.Recipient, unloaded []string) {
	rows = make([]domain.Recipient, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.snapshot.Find(id); ok {
			rows = append(rows, r)
			continue
		}
		unloaded = append(unloaded, domain.NormalizeID(id))
	}
	return rows, unloaded
}

// Apply runs transition t on the snapshot rows picked by ids. An empty
// params.Actor defaults to the session's staff member. The snapshot is not
// refreshed; call Refresh to see the writes.
func (s *Session) Apply(ctx context.Context, engine *SyncService, t domain.Transition, ids []string, params domain.TransitionParams) (ApplyResult, error) {
	if s.snapshot.Name == "" {
		return ApplyResult{}, fmt.Errorf("service.Session.Apply: %w: no roster selected", domain.ErrValidation)
	}
	if len(ids) == 0 {
		return ApplyResult{}, fmt.Errorf("service.Session.Apply: %w: no rows selected", domain.ErrValidation)
	}
	if strings.TrimSpace(params.Actor) == "" {
		params.Actor = s.staff
	}

	rows, unloaded := s.Pick(ids)
	result, err := engine.Apply(ctx, ApplyRequest{
		Roster:     s.snapshot.Name,
		Transition: t,
		Rows:       rows,
		Unloaded:   unloaded,
		Params:     params,
	})
	if err != nil {
		return ApplyResult{}, fmt.Errorf("service.Session.Apply: %w", err)
	}
	return result, nil
}
