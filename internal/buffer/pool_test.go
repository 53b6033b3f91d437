package buffer

import (
	"bytes"
	"sync"
	"testing"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{"default for zero", 0, DefaultCapacity},
		{"default for negative", -1, DefaultCapacity},
		{"custom", 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.capacity)
			if p.capacity != tt.want {
				t.Errorf("capacity = %d, want %d", p.capacity, tt.want)
			}
			if buf := p.Get(); buf.Cap() < tt.want {
				t.Errorf("fresh buffer cap = %d, want at least %d", buf.Cap(), tt.want)
			}
		})
	}
}

func TestPoolGetPut(t *testing.T) {
	p := NewPool(64)

	buf := p.Get()
	buf.WriteString("leftover")
	p.Put(buf)

	again := p.Get()
	if again.Len() != 0 {
		t.Errorf("buffer from pool not reset: %q", again.String())
	}
}

func TestPoolDropsOversized(t *testing.T) {
	p := NewPool(64)

	big := bytes.NewBuffer(make([]byte, 0, MaxPooled+1))
	p.Put(big)
	p.Put(nil)

	if got := p.Get(); got == big {
		t.Error("oversized buffer was pooled")
	}
}

func TestSharedPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				buf := Get()
				if buf.Len() != 0 {
					t.Error("shared pool returned a dirty buffer")
					return
				}
				buf.WriteString("record")
				Put(buf)
			}
		}()
	}
	wg.Wait()
}
