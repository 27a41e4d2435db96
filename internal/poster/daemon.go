package poster

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/fortuna/dugout/internal/ingest"
	"github.com/fortuna/dugout/internal/platform/logging"
	"github.com/fortuna/dugout/internal/tweet"
)

// LiveSource produces live feeds.
type LiveSource interface {
	Snapshot(ctx context.Context, gameID string) (*ingest.LiveFeed, error)
}

// CycleResult summarizes one polling cycle.
type CycleResult struct {
	Bootstrapped bool
	Posted       int
	Skipped      int
	FinalPosted  bool
}

// Daemon posts one game's plays as they appear.
type Daemon struct {
	gameID string
	live   LiveSource
	poster Poster
	states *StateFile
	opts   tweet.Options
	grace  time.Duration
	log    *logging.Logger
	now    func() time.Time
}

// NewDaemon creates a daemon for gameID. The final score is posted once
// the game has looked completed for at least grace.
func NewDaemon(gameID string, live LiveSource, p Poster, states *StateFile, opts tweet.Options, grace time.Duration, log *logging.Logger) *Daemon {
	return &Daemon{
		gameID: gameID,
		live:   live,
		poster: p,
		states: states,
		opts:   opts,
		grace:  grace,
		log:    log,
		now:    time.Now,
	}
}

// RunCycle loads state, takes a snapshot and posts whatever is new.
func (d *Daemon) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult

	st, err := d.states.Load(d.gameID)
	if err != nil {
		return res, err
	}
	if st.FinalPosted {
		res.FinalPosted = true
		return res, nil
	}

	feed, err := d.live.Snapshot(ctx, d.gameID)
	if err != nil {
		return res, errors.Wrapf(err, "snapshot %s", d.gameID)
	}

	// First sight of a game: everything already played counts as posted.
	if !st.Bootstrapped {
		for _, e := range feed.Events {
			st.MarkPosted(e.Key)
		}
		st.Bootstrapped = true
		res.Bootstrapped = true
		return res, d.states.Save(st)
	}

	game := feed.GameState()
	dirty := false
	for _, e := range feed.Events {
		if st.Posted(e.Key) {
			continue
		}
		if e.IsSubstitution {
			st.MarkPosted(e.Key)
			res.Skipped++
			dirty = true
			continue
		}

		text := tweet.FormatPlay(tweet.FromEvent(e, feed.State[e.Key], game), d.opts)
		id, err := d.poster.Post(ctx, text, st.LastTweetID)
		if err != nil {
			if dirty {
				_ = d.states.Save(st)
			}
			return res, errors.Wrapf(err, "post play %s", e.Key)
		}
		d.remember(st, id)
		st.MarkPosted(e.Key)
		res.Posted++
		if err := d.states.Save(st); err != nil {
			return res, err
		}
		dirty = false
	}

	switch {
	case feed.Completed():
		now := d.now()
		if st.FinalCandidateAt == nil {
			st.FinalCandidateAt = &now
			dirty = true
		}
		if now.Sub(*st.FinalCandidateAt) >= d.grace {
			id, err := d.poster.Post(ctx, tweet.FormatFinal(game, d.opts), st.LastTweetID)
			if err != nil {
				if dirty {
					_ = d.states.Save(st)
				}
				return res, errors.Wrap(err, "post final")
			}
			d.remember(st, id)
			st.FinalPosted = true
			res.FinalPosted = true
			dirty = true
		}
	case st.FinalCandidateAt != nil:
		// status went back to in progress
		st.FinalCandidateAt = nil
		dirty = true
	}

	if dirty {
		return res, d.states.Save(st)
	}
	return res, nil
}

func (d *Daemon) remember(st *State, id string) {
	st.LastTweetID = id
	if st.RootTweetID == "" {
		st.RootTweetID = id
	}
}

// Run polls every interval until the final is posted or ctx is done. A
// failed cycle is logged and retried on the next tick. With once set, it
// runs a single cycle and returns its error.
func (d *Daemon) Run(ctx context.Context, interval time.Duration, once bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := d.RunCycle(ctx)
		if err != nil {
			d.log.Error("posting cycle failed", "game_id", d.gameID, "error", err)
		} else {
			d.log.Info("posting cycle complete",
				"game_id", d.gameID,
				"bootstrapped", res.Bootstrapped,
				"posted", res.Posted,
				"skipped", res.Skipped,
				"final_posted", res.FinalPosted)
		}

		if once {
			return err
		}
		if err == nil && res.FinalPosted {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
