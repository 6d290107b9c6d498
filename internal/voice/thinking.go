package voice

import "math/rand"

var thinkingSounds = []string{
	"Hmm...",
	"Let's see...",
	"Well...",
	"Um...",
	"So...",
	"Okay...",
	"Alright...",
}

const thinkingSoundChance = 0.7

// AddThinkingSounds prepends a filler word 70% of the time so synthesized
// interviewer speech sounds less canned.
func AddThinkingSounds(text string) string {
	if rand.Float64() < thinkingSoundChance {
		return thinkingSounds[rand.Intn(len(thinkingSounds))] + " " + text
	}
	return text
}
