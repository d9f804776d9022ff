package compression

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	data := []byte(strings.Repeat("squeeze me ", 50))
	compressed := c.Compress(data)
	if len(compressed) >= len(data) {
		t.Error("repetitive payload should shrink")
	}
	got, err := c.Decompress(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip mismatch")
	}
}

func TestSmallPayloadPassesThrough(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	data := []byte("tiny")
	if got := c.Compress(data); !bytes.Equal(got, data) {
		t.Error("payloads below the threshold must pass through")
	}
}

func TestDisabledCompressorStillDecompresses(t *testing.T) {
	on, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer on.Close()
	off, err := New(0)
	if err != nil {
		t.Fatal(err)
	}
	defer off.Close()

	data := []byte(strings.Repeat("written while compression was on ", 20))
	compressed := on.Compress(data)

	// A level-0 compressor must read frames it did not write, including
	// from concurrent readers.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := off.Decompress(compressed)
			if err != nil {
				t.Errorf("Decompress: %v", err)
				return
			}
			if !bytes.Equal(got, data) {
				t.Error("round trip mismatch")
			}
		}()
	}
	wg.Wait()

	plain := []byte("never compressed")
	if got, err := off.Decompress(plain); err != nil || !bytes.Equal(got, plain) {
		t.Errorf("pass-through = (%q, %v)", got, err)
	}
}
