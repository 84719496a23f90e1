package board

import (
	"sync"
	"testing"

	"github.com/chase3718/lou-keys/internal/keys"
)

func TestVirtualBus(t *testing.T) {
	var bus VirtualBus
	if !bus.Toggle(3) || bus.Sample() != 1<<3 {
		t.Fatalf("Toggle(3) did not press line 3: %b", bus.Sample())
	}
	if bus.Toggle(3) || bus.Sample() != 0 {
		t.Fatalf("second Toggle(3) did not release: %b", bus.Sample())
	}
	bus.SetButton(true)
	if !bus.ButtonDown() {
		t.Error("ButtonDown() = false after SetButton(true)")
	}

	var wg sync.WaitGroup
	for l := keys.Line(0); l < keys.NumKeys; l++ {
		wg.Add(1)
		go func(l keys.Line) {
			defer wg.Done()
			bus.Toggle(l)
		}(l)
	}
	wg.Wait()
	if bus.Sample() != keys.Mask {
		t.Errorf("concurrent toggles = %b, want %b", bus.Sample(), keys.Mask)
	}
	bus.Release()
	if bus.Sample() != 0 {
		t.Error("Release() left lines held")
	}
}
