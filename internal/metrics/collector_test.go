package metrics

import (
	"sync"
	"testing"
	"time"
)

var levels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func TestNewCollector(t *testing.T) {
	c := NewCollector(levels)
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}
	if c.Logged(2) != 0 {
		t.Error("Expected initial message count to be 0")
	}
	if c.Errors() != 0 {
		t.Error("Expected initial error count to be 0")
	}
}

func TestTrackLogged(t *testing.T) {
	c := NewCollector(levels)

	tests := []struct {
		name  string
		level int
		count int
	}{
		{"single debug", 1, 1},
		{"several info", 2, 5},
		{"many errors", 4, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.count; i++ {
				c.TrackLogged(tt.level)
			}
			if got := c.Logged(tt.level); got != uint64(tt.count) {
				t.Errorf("Logged(%d) = %d, want %d", tt.level, got, tt.count)
			}
		})
	}

	c.TrackLogged(-1)
	c.TrackLogged(len(levels))
	if got := c.Logged(len(levels)); got != 0 {
		t.Errorf("out of range level counted: %d", got)
	}

	m := c.Snapshot(3, 2)
	if m.MessagesLogged["INFO"] != 5 || m.MessagesLogged["ERROR"] != 100 {
		t.Errorf("unexpected per-level counts: %v", m.MessagesLogged)
	}
	if _, ok := m.MessagesLogged["TRACE"]; ok {
		t.Error("levels without records should be omitted")
	}
	if m.QueueDepth != 3 || m.SinkCount != 2 {
		t.Errorf("queue depth %d sinks %d", m.QueueDepth, m.SinkCount)
	}
}

func TestTrackWrite(t *testing.T) {
	c := NewCollector(levels)

	c.TrackWrite(100, 10*time.Millisecond)
	c.TrackWrite(50, 30*time.Millisecond)
	c.TrackWrite(0, 5*time.Millisecond)

	m := c.Snapshot(0, 0)
	if m.BytesWritten != 150 {
		t.Errorf("BytesWritten = %d, want 150", m.BytesWritten)
	}
	if m.WriteCount != 3 {
		t.Errorf("WriteCount = %d, want 3", m.WriteCount)
	}
	if m.MaxWriteTime != 30*time.Millisecond {
		t.Errorf("MaxWriteTime = %v, want 30ms", m.MaxWriteTime)
	}
	if m.AverageWriteTime != 15*time.Millisecond {
		t.Errorf("AverageWriteTime = %v, want 15ms", m.AverageWriteTime)
	}
}

func TestTrackErrorAndDropped(t *testing.T) {
	c := NewCollector(levels)

	c.TrackError("sink[0]")
	c.TrackError("sink[0]")
	c.TrackError("sink[1]")
	c.TrackDropped()

	m := c.Snapshot(0, 2)
	if m.ErrorCount != 3 || c.Errors() != 3 {
		t.Errorf("ErrorCount = %d, want 3", m.ErrorCount)
	}
	if m.ErrorsBySink["sink[0]"] != 2 || m.ErrorsBySink["sink[1]"] != 1 {
		t.Errorf("ErrorsBySink = %v", m.ErrorsBySink)
	}
	if m.MessagesDropped != 1 {
		t.Errorf("MessagesDropped = %d, want 1", m.MessagesDropped)
	}
}

func TestReset(t *testing.T) {
	c := NewCollector(levels)
	c.TrackLogged(2)
	c.TrackDropped()
	c.TrackWrite(10, time.Millisecond)
	c.TrackError("sink[0]")

	c.Reset()

	m := c.Snapshot(0, 0)
	if len(m.MessagesLogged) != 0 || m.MessagesDropped != 0 || m.BytesWritten != 0 ||
		m.WriteCount != 0 || m.ErrorCount != 0 || len(m.ErrorsBySink) != 0 || m.MaxWriteTime != 0 {
		t.Errorf("metrics not reset: %+v", m)
	}
}

func TestConcurrentTracking(t *testing.T) {
	c := NewCollector(levels)

	const goroutines, perG = 10, 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				c.TrackLogged(id % len(levels))
				c.TrackWrite(1, time.Duration(j))
				if j%100 == 0 {
					c.TrackError("sink[0]")
				}
			}
		}(i)
	}
	wg.Wait()

	m := c.Snapshot(0, 1)
	var total uint64
	for _, n := range m.MessagesLogged {
		total += n
	}
	if total != goroutines*perG {
		t.Errorf("total logged = %d, want %d", total, goroutines*perG)
	}
	if m.WriteCount != goroutines*perG {
		t.Errorf("WriteCount = %d, want %d", m.WriteCount, goroutines*perG)
	}
	if m.ErrorsBySink["sink[0]"] != goroutines*perG/100 {
		t.Errorf("errors = %d", m.ErrorsBySink["sink[0]"])
	}
}
