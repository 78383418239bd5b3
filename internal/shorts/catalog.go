package shorts

import "slices"

// Mood tags a music track with the emotional tone it fits.
type Mood string

const (
	MoodSad           Mood = "sad"
	MoodMelancholic   Mood = "melancholic"
	MoodHappy         Mood = "happy"
	MoodEuphoric      Mood = "euphoric/high"
	MoodExcited       Mood = "excited"
	MoodChill         Mood = "chill"
	MoodUneasy        Mood = "uneasy"
	MoodAngry         Mood = "angry"
	MoodDark          Mood = "dark"
	MoodHopeful       Mood = "hopeful"
	MoodContemplative Mood = "contemplative"
	MoodFunny         Mood = "funny/quirky"
)

var allMoods = []Mood{
	MoodSad,
	MoodMelancholic,
	MoodHappy,
	MoodEuphoric,
	MoodExcited,
	MoodChill,
	MoodUneasy,
	MoodAngry,
	MoodDark,
	MoodHopeful,
	MoodContemplative,
	MoodFunny,
}

// Moods returns every advertised mood in display order.
func Moods() []Mood {
	return slices.Clone(allMoods)
}

// Known reports whether m is an advertised mood.
func (m Mood) Known() bool {
	return slices.Contains(allMoods, m)
}

// DefaultVoice is used when neither the request nor the config names one.
const DefaultVoice = "af_heart"

var voices = []string{
	"af_heart", "af_alloy", "af_aoede", "af_bella", "af_jessica", "af_kore",
	"af_nicole", "af_nova", "af_river", "af_sarah", "af_sky",
	"am_adam", "am_echo", "am_eric", "am_fenrir", "am_liam", "am_michael",
	"am_onyx", "am_puck", "am_santa",
	"bf_emma", "bf_isabella", "bm_george", "bm_lewis",
	"bf_alice", "bf_lily", "bm_daniel", "bm_fable",
}

// Voices lists the speech voices the synthesizer accepts.
func Voices() []string {
	return slices.Clone(voices)
}

// IsVoice reports whether name is a supported voice.
func IsVoice(name string) bool {
	return slices.Contains(voices, name)
}
