package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var parseBase = time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC) // a Monday

func TestParseCallbackTimeRelative(t *testing.T) {
	assert.Equal(t, parseBase.Add(30*time.Minute), ParseCallbackTime("call me in 30 minutes", parseBase))
	assert.Equal(t, parseBase.Add(45*time.Minute), ParseCallbackTime("after 45 mins please", parseBase))
	assert.Equal(t, parseBase.Add(2*time.Hour), ParseCallbackTime("in 2 hours", parseBase))
	assert.Equal(t, parseBase.Add(1*time.Hour), ParseCallbackTime("maybe after 1 hour", parseBase))
}

func TestParseCallbackTimeTomorrow(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), ParseCallbackTime("tomorrow", parseBase))
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), ParseCallbackTime("tomorrow morning", parseBase))
	assert.Equal(t, time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC), ParseCallbackTime("tomorrow afternoon", parseBase))
	assert.Equal(t, time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC), ParseCallbackTime("tomorrow evening", parseBase))
	assert.Equal(t, time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC), ParseCallbackTime("tomorrow at 5 pm", parseBase))
}

func TestParseCallbackTimeWeekday(t *testing.T) {
	// Base is Monday, so Wednesday is two days out.
	assert.Equal(t, time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), ParseCallbackTime("wednesday works", parseBase))
	assert.Equal(t, time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC), ParseCallbackTime("wednesday at 3:30 pm", parseBase))
	// A weekday matching today but with a past time rolls a full week.
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), ParseCallbackTime("monday 9 am", parseBase))
}

func TestParseCallbackTimeClock(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC), ParseCallbackTime("at 4 pm", parseBase))
	assert.Equal(t, time.Date(2026, 3, 2, 15, 45, 0, 0, time.UTC), ParseCallbackTime("15:45 is fine", parseBase))
	// A time already past today lands tomorrow.
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), ParseCallbackTime("9 am", parseBase))
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), ParseCallbackTime("12 am", parseBase))
}

func TestParseCallbackTimeDayPart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), ParseCallbackTime("this evening", parseBase))
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), ParseCallbackTime("sometime in the afternoon", parseBase))
	// Morning has passed at 11:30.
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), ParseCallbackTime("in the morning", parseBase))
}

func TestParseCallbackTimeFallback(t *testing.T) {
	assert.Equal(t, parseBase.Add(2*time.Hour), ParseCallbackTime("", parseBase))
	assert.Equal(t, parseBase.Add(2*time.Hour), ParseCallbackTime("whenever suits you", parseBase))
}

func TestNextFollowUpSlot(t *testing.T) {
	morning := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC), NextFollowUpSlot(morning))

	lateAfternoon := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), NextFollowUpSlot(lateAfternoon))

	boundary := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), NextFollowUpSlot(boundary))
}
