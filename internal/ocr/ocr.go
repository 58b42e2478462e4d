// Package ocr turns scanned images into cleaned note text. The recognition
// engine itself is a black box behind the Recognizer interface; the default
// implementation shells out to a local tesseract binary.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Recognizer maps an image file path to raw recognized text. An empty
// result is valid (blank page).
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// imagePlaceholder in a CommandRecognizer argument is replaced with the
// image path at invocation time.
const imagePlaceholder = "{image}"

// CommandRecognizer runs an external OCR command. If no argument contains
// the {image} placeholder, the image path is prepended to the arguments.
type CommandRecognizer struct {
	Command string
	Args    []string
}

// NewCommandRecognizer builds a recognizer for the given command line.
func NewCommandRecognizer(command string, args []string) *CommandRecognizer {
	return &CommandRecognizer{Command: command, Args: args}
}

// Recognize runs the OCR command and returns its stdout.
func (r *CommandRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := make([]string, 0, len(r.Args)+1)
	substituted := false
	for _, a := range r.Args {
		if strings.Contains(a, imagePlaceholder) {
			a = strings.ReplaceAll(a, imagePlaceholder, imagePath)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append([]string{imagePath}, args...)
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("ocr: %s failed: %w: %s", r.Command, err, detail)
		}
		return "", fmt.Errorf("ocr: %s failed: %w", r.Command, err)
	}
	return stdout.String(), nil
}

// Service combines recognition with text cleanup.
type Service struct {
	rec Recognizer
}

// NewService creates a Service over the given recognizer.
func NewService(rec Recognizer) *Service {
	return &Service{rec: rec}
}

// Text recognizes the image and returns cleaned text. Empty text is not an
// error.
func (s *Service) Text(ctx context.Context, imagePath string) (string, error) {
	raw, err := s.rec.Recognize(ctx, imagePath)
	if err != nil {
		return "", err
	}
	return Clean(raw), nil
}
