package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/sethvargo/go-githubactions"
)

// ActionsSink publishes outputs the way a GitHub Actions step does: outputs
// are appended to the $GITHUB_OUTPUT file and a failure becomes an ::error::
// workflow command.
type ActionsSink struct {
	mu     sync.Mutex
	action *githubactions.Action
}

// NewActionsSink appends outputs to the file at outputPath and writes workflow
// commands to annotations. The file is checked for writability up front so a
// bad path fails the run instead of silently losing outputs.
func NewActionsSink(outputPath string, annotations io.Writer) (*ActionsSink, error) {
	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open GitHub output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to open GitHub output file: %w", err)
	}
	if annotations == nil {
		annotations = os.Stderr
	}

	getenv := func(key string) string {
		if key == "GITHUB_OUTPUT" {
			return outputPath
		}
		return os.Getenv(key)
	}
	return &ActionsSink{
		action: githubactions.New(
			githubactions.WithWriter(annotations),
			githubactions.WithGetenv(getenv),
		),
	}, nil
}

func (s *ActionsSink) SetOutput(key string, value any) error {
	v, err := actionsValue(value)
	if err != nil {
		return fmt.Errorf("failed to format output %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action.SetOutput(key, v)
	return nil
}

func (s *ActionsSink) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action.Errorf("%s", err.Error())
	return nil
}

func (s *ActionsSink) Close() error { return nil }

func actionsValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
