package midiout

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
)

// yieldingLine writes into a buffer and yields after every byte so that a
// second writer, if there were one, would get a chance to interleave.
type yieldingLine struct {
	buf bytes.Buffer
}

func (l *yieldingLine) WriteByte(b byte) error {
	l.buf.WriteByte(b)
	runtime.Gosched()
	return nil
}

func TestTransmitterNoInterleave(t *testing.T) {
	line := &yieldingLine{}
	tx := NewTransmitter(line, 4, nil)

	var observed []Message
	tx.AddTap(TapFunc(func(m Message) { observed = append(observed, m) }))

	done := make(chan error, 1)
	go func() { done <- tx.Run(context.Background()) }()

	const perProducer = 200
	var wg sync.WaitGroup
	for p := uint8(0); p < 2; p++ {
		wg.Add(1)
		go func(ch uint8) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := tx.Send(Encode(i%2 == 0, uint8(i%13), 5, 100, ch)); err != nil {
					t.Errorf("Send() error = %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	tx.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	wire := line.buf.Bytes()
	if len(wire) != 2*perProducer*3 {
		t.Fatalf("wrote %d bytes, want %d", len(wire), 2*perProducer*3)
	}
	for i := 0; i < len(wire); i += 3 {
		if !IsNote(wire[i]) || wire[i+1] >= 0x80 || wire[i+2] != 100 {
			t.Fatalf("bytes %d..%d = % X: not a whole note message", i, i+2, wire[i:i+3])
		}
	}
	if len(observed) != 2*perProducer {
		t.Errorf("tap saw %d messages, want %d", len(observed), 2*perProducer)
	}
}

func TestTransmitterPreservesOrder(t *testing.T) {
	line := &bytes.Buffer{}
	tx := NewTransmitter(line, 0, nil)
	msgs := []Message{Encode(true, 0, 5, 100, 0), CC(1, 0, 3), Encode(false, 0, 5, 100, 0)}
	for _, m := range msgs {
		if err := tx.Send(m); err != nil {
			t.Fatal(err)
		}
	}
	tx.Close()
	if err := tx.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	var want []byte
	for _, m := range msgs {
		want = append(want, m.Bytes()...)
	}
	if !bytes.Equal(line.Bytes(), want) {
		t.Errorf("wire = % X, want % X", line.Bytes(), want)
	}
}

func TestTransmitterSendAfterClose(t *testing.T) {
	tx := NewTransmitter(&bytes.Buffer{}, 1, nil)
	tx.Close()
	tx.Close()
	if err := tx.Send(CC(0, 0, 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close = %v, want ErrClosed", err)
	}
}

type failingLine struct{ n int }

func (l *failingLine) WriteByte(byte) error {
	l.n++
	if l.n == 2 {
		return errors.New("line fault")
	}
	return nil
}

func TestTransmitterSkipsFailedMessage(t *testing.T) {
	line := &failingLine{}
	tx := NewTransmitter(line, 2, nil)
	var seen int
	tx.AddTap(TapFunc(func(Message) { seen++ }))

	tx.Send(Encode(true, 0, 5, 100, 0))
	tx.Send(Encode(false, 0, 5, 100, 0))
	tx.Close()
	if err := tx.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// first message aborted after its second byte, second written whole
	if line.n != 5 || seen != 1 {
		t.Errorf("bytes attempted %d, observed %d; want 5 and 1", line.n, seen)
	}
}
