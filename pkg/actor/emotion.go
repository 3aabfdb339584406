package actor

import (
	"errors"
	"fmt"
)

var ErrUnknownStimulus = errors.New("unknown stimulus")

// Mood is an NPC's current emotional state.
type Mood string

const (
	Neutral Mood = "neutral" // baseline
	Happy   Mood = "happy"
	Sad     Mood = "sad"
	Angry   Mood = "angry"
	Afraid  Mood = "afraid"
	Jealous Mood = "jealous"
	Anxious Mood = "anxious"
)

// Moods lists every mood.
var Moods = []Mood{Neutral, Happy, Sad, Angry, Afraid, Jealous, Anxious}

// Emotion intensity bounds and daily decay.
const (
	MaxIntensity     = 10
	IntensityDecay   = 1
	repeatEscalation = 2
)

// Emotion is mood plus intensity (0-10) and days spent in the mood.
type Emotion struct {
	Mood      Mood `json:"mood"`
	Intensity int  `json:"intensity"`
	Age       int  `json:"age"`
}

func NewEmotion() Emotion {
	return Emotion{Mood: Neutral}
}

type moodTransition struct {
	to        Mood
	intensity int
}

// anyMood keys the fallback transition for a stimulus.
const anyMood Mood = ""

// transitions maps a stimulus and the current mood to the resulting mood.
// A missing mood entry falls back to anyMood; a stimulus with neither leaves the mood alone.
var transitions = map[string]map[Mood]moodTransition{
	"gift": {
		anyMood: {Happy, 5},
		Angry:   {Neutral, 2}, // placated
		Afraid:  {Anxious, 3},
		Sad:     {Happy, 3},
	},
	"praise": {
		anyMood: {Happy, 4},
		Jealous: {Jealous, 3}, // praise does not soothe jealousy
		Angry:   {Angry, 3},
	},
	"insult": {
		anyMood: {Angry, 6},
		Afraid:  {Afraid, 7},
		Sad:     {Sad, 7},
	},
	"threat": {
		anyMood: {Afraid, 7},
		Angry:   {Angry, 8}, // escalates instead
	},
	"betrayal": {
		anyMood: {Angry, 8},
		Happy:   {Sad, 8},
	},
	"comfort": {
		Sad:     {Neutral, 2},
		Afraid:  {Anxious, 3},
		Anxious: {Neutral, 2},
		Jealous: {Anxious, 3},
		Angry:   {Angry, 4},
		Neutral: {Happy, 3},
	},
	"loss": {
		anyMood: {Sad, 8},
	},
	"rival_success": {
		anyMood: {Jealous, 5},
		Happy:   {Anxious, 3},
	},
	"danger": {
		anyMood: {Anxious, 5},
		Afraid:  {Afraid, 8},
	},
}

// Stimuli lists the known stimuli, for validation.
func Stimuli() []string {
	return []string{"betrayal", "comfort", "danger", "gift", "insult", "loss", "praise", "rival_success", "threat"}
}

// React moves the emotion through the transition table. Repeating a stimulus that
// keeps the same mood escalates intensity. Reports whether the mood changed.
func (e *Emotion) React(stimulus string) (bool, error) {
	table, ok := transitions[stimulus]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownStimulus, stimulus)
	}
	t, ok := table[e.Mood]
	if !ok {
		t, ok = table[anyMood]
	}
	if !ok {
		return false, nil
	}
	if t.to == e.Mood {
		e.Intensity = min(MaxIntensity, max(e.Intensity+repeatEscalation, t.intensity))
		return false, nil
	}
	e.Mood = t.to
	e.Intensity = t.intensity
	e.Age = 0
	if e.Mood == Neutral {
		e.Intensity = 0
	}
	return true, nil
}

// Tick ages the emotion by one day. Intensity fades and the mood returns to neutral
// once it reaches zero. Reports whether the mood changed.
func (e *Emotion) Tick() bool {
	if e.Mood == Neutral {
		e.Age++
		return false
	}
	e.Age++
	e.Intensity -= IntensityDecay
	if e.Intensity > 0 {
		return false
	}
	*e = Emotion{Mood: Neutral}
	return true
}
