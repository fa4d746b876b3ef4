package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(36 * time.Hour)
	assert.Equal(t, time.Date(2024, 6, 16, 22, 0, 0, 0, time.UTC), c.Now())

	c.Set(start)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestSystemClock_Location(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}
	c := NewSystemClock(paris)
	assert.Equal(t, paris, c.Now().Location())
	assert.Equal(t, time.UTC, NewSystemClock(nil).Now().Location())
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)
}
