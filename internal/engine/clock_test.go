package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), NewClock().Current())
	assert.Equal(t, int64(100), NewClockAt(100).Current())
}

func TestClock_Next(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(3), c.Next())
	assert.Equal(t, int64(3), c.Current())
}

func TestClock_ConcurrentReaders(t *testing.T) {
	c := NewClock()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
			_ = c.Current()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines), c.Current())
}

func TestClock_TicksAdvanceClock(t *testing.T) {
	c := NewClockAt(10)
	inst, err := New(compile(t, accumulatorSrc), map[string]Value{"init": Int(0)}, WithClock(c))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		_, err := inst.Run(in("input", Int(1)))
		if err != nil {
			t.Fatal(err)
		}
	}
	assert.Equal(t, int64(13), c.Current())
}
