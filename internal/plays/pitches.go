package plays

import (
	"regexp"
	"strconv"
	"strings"
)

// Pitch is one decoded pitch in an at-bat sequence.
type Pitch string

const (
	PitchBall           Pitch = "ball"
	PitchCalledStrike   Pitch = "called_strike"
	PitchSwingingStrike Pitch = "swinging_strike"
	PitchFoul           Pitch = "foul"
	PitchInPlay         Pitch = "in_play"
	PitchHitByPitch     Pitch = "hit_by_pitch"
	PitchIntentional    Pitch = "intentional_ball"
	PitchPitchoutBall   Pitch = "pitchout_ball"
	PitchPitchoutStrike Pitch = "pitchout_strike"
	PitchUnknown        Pitch = "unknown"
)

var pitchCodes = map[rune]Pitch{
	'B': PitchBall,
	'K': PitchCalledStrike,
	'C': PitchCalledStrike,
	'S': PitchSwingingStrike,
	'M': PitchSwingingStrike,
	'F': PitchFoul,
	'L': PitchFoul,
	'T': PitchFoul,
	'X': PitchInPlay,
	'H': PitchHitByPitch,
	'I': PitchIntentional,
	'P': PitchPitchoutBall,
	'Q': PitchPitchoutStrike,
}

var pitchGroupRe = regexp.MustCompile(`\((\d)-(\d)\s*([A-Za-z]*)\)`)

// Count is a balls/strikes count.
type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
}

// PitchContext is the final count and pitch sequence of a plate appearance.
type PitchContext struct {
	FinalCount *Count  `json:"finalCount"`
	Sequence   string  `json:"sequence"`
	Pitches    []Pitch `json:"pitches"`
}

// NumPitches is the number of decoded pitches.
func (p PitchContext) NumPitches() int { return len(p.Pitches) }

// ParsePitches reads the "(B-S SEQUENCE)" group of a play sentence. When
// several groups are present the last one wins, since earlier parentheticals
// belong to other parts of the text.
func ParsePitches(text string) PitchContext {
	matches := pitchGroupRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return PitchContext{Pitches: []Pitch{}}
	}
	m := matches[len(matches)-1]

	balls, _ := strconv.Atoi(m[1])
	strikes, _ := strconv.Atoi(m[2])
	seq := strings.ToUpper(m[3])

	pitches := make([]Pitch, 0, len(seq))
	for _, r := range seq {
		pitches = append(pitches, DecodePitch(r))
	}

	return PitchContext{
		FinalCount: &Count{Balls: balls, Strikes: strikes},
		Sequence:   seq,
		Pitches:    pitches,
	}
}

// DecodePitch maps one sequence character to a pitch.
func DecodePitch(code rune) Pitch {
	if p, ok := pitchCodes[code]; ok {
		return p
	}
	return PitchUnknown
}
