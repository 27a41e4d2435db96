package plays

// Derive computes the score and outs after every play, anchored to the
// live snapshot. Score flows backward from "now"; outs flow forward from
// each play's own counter. The two passes are independent.
func Derive(events []Event, snap Snapshot) map[string]DerivedState {
	scores := deriveScores(events, snap)
	outs := deriveOuts(events, snap)

	out := make(map[string]DerivedState, len(events))
	for i, e := range events {
		out[e.Key] = DerivedState{
			AwayScore:     scores[i].away,
			HomeScore:     scores[i].home,
			OutsAfterPlay: outs[i],
		}
	}
	return out
}

type scoreAfter struct {
	away *int
	home *int
}

// deriveScores walks the plays from last to first. Each play records the
// running score, then its RunsScored are undone before moving to the
// previous play. Substitutions never undo runs.
func deriveScores(events []Event, snap Snapshot) []scoreAfter {
	out := make([]scoreAfter, len(events))
	if snap.AwayScore == nil || snap.HomeScore == nil {
		return out
	}

	away, home := *snap.AwayScore, *snap.HomeScore
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		out[i] = scoreAfter{away: intPtr(away), home: intPtr(home)}
		if e.IsSubstitution {
			continue
		}

		switch e.Half.Side() {
		case SideAway:
			away = max(away-e.RunsScored, 0)
		case SideHome:
			home = max(home-e.RunsScored, 0)
		}
	}
	return out
}

// deriveOuts walks the plays first to last. A play's outs-after is the next
// play's recorded outs when it is in the same half, 3 when the half changes,
// and otherwise its own recorded outs plus what the text says it recorded.
// Unknown stays nil.
func deriveOuts(events []Event, snap Snapshot) []*int {
	out := make([]*int, len(events))
	for i, e := range events {
		if e.IsSubstitution && i > 0 && e.SameHalf(events[i-1]) {
			out[i] = copyInt(out[i-1])
			continue
		}

		next := nextCounted(events, i)
		switch {
		case next >= 0 && !events[next].SameHalf(e):
			out[i] = intPtr(3)
		case next >= 0 && events[next].Outs != nil:
			out[i] = copyInt(events[next].Outs)
		case e.Outs != nil:
			after := *e.Outs
			if !e.IsSubstitution {
				after += EstimateOuts(e.Text)
			}
			out[i] = intPtr(clamp(after, 0, 3))
		case next < 0 && snap.Outs != nil:
			out[i] = intPtr(clamp(*snap.Outs, 0, 3))
		}
	}
	return out
}

// nextCounted returns the index of the next play that can speak for the
// outs, skipping substitutions that carry no counter.
func nextCounted(events []Event, i int) int {
	for j := i + 1; j < len(events); j++ {
		if events[j].IsSubstitution && events[j].Outs == nil {
			continue
		}
		return j
	}
	return -1
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
