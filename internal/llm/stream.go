package llm

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"nexus/internal/core"

	"github.com/bytedance/sonic"
)

// sseDataField matches "data:" lines with or without the conventional space
const sseDataField = "data:"

// sseStream reads an OpenAI-compatible event stream one content fragment
// at a time.
type sseStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  core.Logger

	chunk     string
	usage     *core.TokenUsage
	err       error
	done      bool
	closeOnce sync.Once
}

func newSSEStream(ctx context.Context, body io.ReadCloser, logger core.Logger) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), core.MaxScannerBufferSize)
	return &sseStream{ctx: ctx, body: body, scanner: scanner, logger: logger}
}

// Next advances to the next non-empty content fragment.
func (s *sseStream) Next() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		if err := s.ctx.Err(); err != nil {
			return s.fail(transportError(s.ctx, err))
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, sseDataField) {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, sseDataField))
		if data == core.StreamChunkDoneMessage {
			s.done = true
			return false
		}
		if data == "" {
			continue
		}

		var event core.StreamResponse
		if err := sonic.UnmarshalString(data, &event); err != nil {
			s.logger.Warn("Error unmarshalling stream event: %v", err)
			continue
		}
		if len(event.Choices) == 0 && event.Usage == nil {
			// some backends report failures mid-stream as {"error": ...}
			if err := streamEventError(data); err != nil {
				return s.fail(err)
			}
			continue
		}
		if event.Usage != nil {
			s.usage = event.Usage
		}

		var content strings.Builder
		for _, choice := range event.Choices {
			content.WriteString(choice.Delta.Content)
		}
		if content.Len() == 0 {
			continue
		}
		s.chunk = content.String()
		return true
	}

	if err := s.scanner.Err(); err != nil {
		return s.fail(transportError(s.ctx, err))
	}
	if err := s.ctx.Err(); err != nil {
		return s.fail(transportError(s.ctx, err))
	}
	// EOF without [DONE] is accepted as the end of stream
	s.done = true
	return false
}

func streamEventError(data string) error {
	var body map[string]any
	if err := sonic.UnmarshalString(data, &body); err != nil {
		return nil
	}
	if msg := extractErrorMessage(body); msg != "" {
		return core.ErrBackend(msg, body, nil)
	}
	return nil
}

func (s *sseStream) fail(err error) bool {
	s.err = err
	s.chunk = ""
	s.done = true
	return false
}

func (s *sseStream) Chunk() string {
	return s.chunk
}

func (s *sseStream) Usage() *core.TokenUsage {
	return s.usage
}

func (s *sseStream) Err() error {
	return s.err
}

func (s *sseStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.done = true
		err = s.body.Close()
	})
	return err
}
