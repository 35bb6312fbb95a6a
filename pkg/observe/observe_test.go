package observe

import (
	"sync"
	"testing"
	"time"
)

func TestGetBeforeSet(t *testing.T) {
	v := NewValue[int]()
	if _, ok := v.Get(); ok {
		t.Error("unset value reported as set")
	}
	v.Set(7)
	got, ok := v.Get()
	if !ok || got != 7 {
		t.Errorf("Get = %d, %v", got, ok)
	}
}

func TestSubscribeSeesLaterSets(t *testing.T) {
	v := NewValue[string]()
	v.Set("before")
	ch, cancel := v.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		t.Fatalf("got replay %q, want none", got)
	case <-time.After(20 * time.Millisecond):
	}

	v.Set("first")
	v.Set("second")
	if got := <-ch; got != "first" {
		t.Errorf("got %q", got)
	}
	if got := <-ch; got != "second" {
		t.Errorf("got %q", got)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	v := NewValue[int]()
	ch, cancel := v.Subscribe()
	cancel()
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
	// second cancel is a no-op
	cancel()
	v.Set(1)
}

func TestManySubscribers(t *testing.T) {
	v := NewValue[int]()
	const n = 8
	chans := make([]<-chan int, n)
	for i := range chans {
		ch, cancel := v.Subscribe()
		defer cancel()
		chans[i] = ch
	}
	v.Set(42)
	for i, ch := range chans {
		select {
		case got := <-ch:
			if got != 42 {
				t.Errorf("sub %d got %d", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("sub %d starved", i)
		}
	}
}

func TestConcurrentSetAndSubscribe(t *testing.T) {
	v := NewValue[int]()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v.Set(i*100 + j)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := v.Subscribe()
			defer cancel()
			for j := 0; j < 10; j++ {
				select {
				case <-ch:
				case <-time.After(10 * time.Millisecond):
				}
			}
		}()
	}
	wg.Wait()
	if _, ok := v.Get(); !ok {
		t.Error("value lost")
	}
}
