// Package tweet renders plays and final scores as length-bounded social
// posts.
package tweet

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/textutil"
)

// DefaultMaxLength applies when Options.MaxLength is not positive.
const DefaultMaxLength = 280

const ellipsis = "…"

// Options control rendering.
type Options struct {
	MaxLength int
	Tag       string
}

func (o Options) maxLength() int {
	if o.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

// GameState is the upstream summary a post is rendered against. It is only
// read.
type GameState struct {
	AwayName  string
	HomeName  string
	AwayScore *int
	HomeScore *int
	Status    string
	Inning    *int
	Half      plays.Half
	Outs      *int
	Count     *plays.Count
	Completed bool
}

// PlayInput is one play with its derived state.
type PlayInput struct {
	Inning         *int
	Half           plays.Half
	Text           string
	IsSubstitution bool
	State          plays.DerivedState
	Game           GameState
}

// FromEvent builds the input for a live event.
func FromEvent(e plays.Event, state plays.DerivedState, game GameState) PlayInput {
	return PlayInput{
		Inning:         e.Inning,
		Half:           e.Half,
		Text:           e.Text,
		IsSubstitution: e.IsSubstitution,
		State:          state,
		Game:           game,
	}
}

// InningLabel returns "Top 3", "Bottom 3", "Mid 3" or "End 3". A play that
// records the third out closes the half; substitutions never do.
func InningLabel(inning *int, half plays.Half, outsAfter *int, isSubstitution bool) string {
	if inning == nil || !half.Known() {
		return ""
	}
	if outsAfter != nil && *outsAfter >= 3 && !isSubstitution {
		if half == plays.HalfTop {
			return fmt.Sprintf("Mid %d", *inning)
		}
		return fmt.Sprintf("End %d", *inning)
	}
	return fmt.Sprintf("%s %d", half.Label(), *inning)
}

func isBreakLabel(label string) bool {
	return strings.HasPrefix(label, "Mid ") || strings.HasPrefix(label, "End ")
}

func outsText(outs int) string {
	if outs == 1 {
		return "1 Out"
	}
	return fmt.Sprintf("%d Outs", outs)
}

// FormatPlay renders a play post: inning label with outs, the play text,
// the score and the optional tag.
func FormatPlay(in PlayInput, opts Options) string {
	var blocks []string

	label := InningLabel(in.Inning, in.Half, in.State.OutsAfterPlay, in.IsSubstitution)
	if label != "" {
		if !isBreakLabel(label) && in.State.OutsAfterPlay != nil {
			label += " | " + outsText(*in.State.OutsAfterPlay)
		}
		blocks = append(blocks, label)
	}

	if text := textutil.ReformatNames(in.Text); text != "" {
		blocks = append(blocks, text)
	}

	away, home := in.State.AwayScore, in.State.HomeScore
	if away == nil || home == nil {
		away, home = in.Game.AwayScore, in.Game.HomeScore
	}
	if line := scoreLine(in.Game.AwayName, in.Game.HomeName, away, home); line != "" {
		blocks = append(blocks, line)
	}

	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		blocks = append(blocks, tag)
	}

	return Truncate(joinBlocks(blocks), opts.maxLength())
}

// FormatFinal renders the final score post. Extra innings are labeled
// "Final/10".
func FormatFinal(g GameState, opts Options) string {
	label := "Final"
	if g.Inning != nil && *g.Inning > 9 {
		label = fmt.Sprintf("Final/%d", *g.Inning)
	}

	blocks := []string{label}
	if line := scoreLine(g.AwayName, g.HomeName, g.AwayScore, g.HomeScore); line != "" {
		blocks = append(blocks, line)
	}
	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		blocks = append(blocks, tag)
	}
	return Truncate(joinBlocks(blocks), opts.maxLength())
}

// joinBlocks separates post blocks with a blank line.
func joinBlocks(blocks []string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for _, b := range blocks {
		if buf.Len() > 0 {
			_, _ = buf.WriteString("\n\n")
		}
		_, _ = buf.WriteString(b)
	}
	return buf.String()
}

func scoreLine(awayName, homeName string, away, home *int) string {
	if away == nil || home == nil {
		return ""
	}
	if awayName == "" {
		awayName = "Away"
	}
	if homeName == "" {
		homeName = "Home"
	}
	return fmt.Sprintf("%s %d, %s %d", awayName, *away, homeName, *home)
}

// Truncate cuts s to at most max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return ellipsis
	}
	return string(runes[:max-1]) + ellipsis
}
