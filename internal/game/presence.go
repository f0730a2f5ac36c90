package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exportnine/server/internal/config"
)

// PresenceMonitor sweeps active matches for silent participants. Heartbeats
// and submits refresh liveness; a participant silent past the threshold is
// forfeited for inactivity, and a match with every human silent is abandoned
// outright.
type PresenceMonitor struct {
	cfg    config.Game
	roster *Roster
	svc    *Service
	logger zerolog.Logger
}

func NewPresenceMonitor(cfg config.Game, roster *Roster, svc *Service, logger zerolog.Logger) *PresenceMonitor {
	return &PresenceMonitor{
		cfg:    cfg,
		roster: roster,
		svc:    svc,
		logger: logger.With().Str("component", "presence").Logger(),
	}
}

// Run sweeps until the context is cancelled.
func (pm *PresenceMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(pm.cfg.SweepInterval)
	defer ticker.Stop()

	pm.logger.Info().
		Dur("interval", pm.cfg.SweepInterval).
		Dur("threshold", pm.cfg.SilenceThreshold).
		Msg("presence monitor started")

	for {
		select {
		case <-ctx.Done():
			pm.logger.Info().Msg("presence monitor stopped")
			return
		case <-ticker.C:
			pm.sweep()
		}
	}
}

type presenceAction struct {
	match   *Match
	quitter uuid.UUID
	abandon bool
}

func (pm *PresenceMonitor) sweep() {
	now := time.Now()
	var actions []presenceAction

	for _, m := range pm.roster.ActiveMatches() {
		m.mu.Lock()
		if m.State != MatchActive {
			m.mu.Unlock()
			continue
		}

		var silent []uuid.UUID
		humans := m.humans()
		for _, p := range humans {
			if now.Sub(p.LastSeen()) > pm.cfg.SilenceThreshold {
				silent = append(silent, p.ID)
			}
		}
		m.mu.Unlock()

		switch {
		case len(silent) == 0:
			continue
		case len(silent) == len(humans):
			actions = append(actions, presenceAction{match: m, abandon: true})
		default:
			// One forfeiture per match per sweep.
			actions = append(actions, presenceAction{match: m, quitter: silent[0]})
		}
	}

	for _, a := range actions {
		if a.abandon {
			pm.logger.Warn().Str("match_id", a.match.ID.String()).Msg("all participants silent, abandoning")
			pm.svc.abandon(a.match)
			continue
		}
		pm.logger.Warn().
			Str("match_id", a.match.ID.String()).
			Str("player_id", a.quitter.String()).
			Msg("participant silent past threshold")
		pm.svc.Forfeit(a.match, a.quitter, ReasonInactivity)
	}
}
