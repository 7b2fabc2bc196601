package cli

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records")

	progress.Start(100)
	progress.Update(50)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Error("Expected progress output to contain 'Progress:'")
	}
	if !strings.Contains(output, "(100/100 records)") {
		t.Errorf("Finish() should render the full total, got %q", output)
	}
}

func TestSimpleProgressUnknownTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records")

	progress.Start(0)
	for i := 0; i < 7; i++ {
		progress.Increment()
	}
	progress.Finish()

	if !strings.Contains(buf.String(), "7 records") {
		t.Errorf("output = %q, want running count", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") || !strings.Contains(output, "test error") {
		t.Errorf("output = %q, want error message", output)
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "records")

	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Increment()
			}
		}()
	}
	wg.Wait()

	if got := progress.(*SimpleProgress).current; got != 1000 {
		t.Errorf("current = %d, want 1000", got)
	}
	progress.Finish()
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil, "")
	sp := progress.(*SimpleProgress)
	if sp.writer == nil || sp.unit != "items" {
		t.Errorf("defaults not applied: %+v", sp)
	}
}
