package ocr

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

type stubRecognizer struct {
	text string
	err  error
}

func (s stubRecognizer) Recognize(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestServiceTextCleansOutput(t *testing.T) {
	svc := NewService(stubRecognizer{text: "Title \r\n\r\n\r\n\r\nbody  "})

	got, err := svc.Text(context.Background(), "page.png")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Title\n\nbody" {
		t.Errorf("got %q", got)
	}
}

func TestServiceTextPropagatesError(t *testing.T) {
	wantErr := errors.New("engine crashed")
	svc := NewService(stubRecognizer{err: wantErr})

	_, err := svc.Text(context.Background(), "page.png")
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestServiceTextEmptyIsNotError(t *testing.T) {
	svc := NewService(stubRecognizer{text: "   \n\n  "})

	got, err := svc.Text(context.Background(), "blank.png")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestCommandRecognizerPlaceholder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	// echo the substituted argument back so the test can see where the
	// image path ended up.
	r := NewCommandRecognizer("echo", []string{"scan:{image}"})

	out, err := r.Recognize(context.Background(), "/tmp/page.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if strings.TrimSpace(out) != "scan:/tmp/page.png" {
		t.Errorf("out = %q", out)
	}
}

func TestCommandRecognizerPrependsPathWithoutPlaceholder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	r := NewCommandRecognizer("echo", []string{"--fast"})

	out, err := r.Recognize(context.Background(), "/tmp/page.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if strings.TrimSpace(out) != "/tmp/page.png --fast" {
		t.Errorf("out = %q", out)
	}
}

func TestCommandRecognizerFailureIncludesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	r := NewCommandRecognizer("sh", []string{"-c", "echo 'cannot read {image}' >&2; exit 3"})

	_, err := r.Recognize(context.Background(), "/tmp/page.png")
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "cannot read /tmp/page.png") {
		t.Errorf("err = %v, want stderr detail included", err)
	}
}
