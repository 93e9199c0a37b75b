package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"llamedit/model"
)

const doneSentinel = "[DONE]"

// Stream is a pull-based, single-pass iterator over a streaming chat
// completion. Bytes arrive in arbitrary chunk boundaries; events come out in
// arrival order. Text and thinking fragments are emitted as they arrive;
// tool calls are held in an accumulator and only surfaced once the server
// signals turn completion, so their arguments are always a complete JSON
// document.
//
// Usage mirrors the familiar SDK shape:
//
//	for stream.Next() {
//	    ev := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream struct {
	ctx    context.Context
	body   io.ReadCloser
	carry  []byte // bytes after the last complete line, kept for the next chunk
	queue  []StreamEvent
	cur    StreamEvent
	acc    *toolCallAccumulator
	err    error
	done   bool
	closed bool
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:  ctx,
		body: body,
		acc:  newToolCallAccumulator(),
	}
}

// Next advances to the next event. It returns false when the stream ends,
// errors, or is cancelled; consult Err afterwards.
func (s *Stream) Next() bool {
	for {
		if len(s.queue) > 0 {
			s.cur = s.queue[0]
			s.queue = s.queue[1:]
			return true
		}
		if s.done {
			return false
		}

		// Cancellation is observed at every chunk boundary.
		if err := s.ctx.Err(); err != nil {
			s.err = err
			s.finish()
			return false
		}

		buf := make([]byte, 4096)
		n, err := s.body.Read(buf)
		if n > 0 {
			s.feed(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			// Transport exhausted without a stop chunk: the sequence ends
			// naturally. Accumulator entries without a finish signal are
			// never flushed.
			s.finish()
		}
	}
}

// Current returns the event produced by the last successful Next.
func (s *Stream) Current() StreamEvent {
	return s.cur
}

// Err returns the terminal error, if any. Locally recovered problems
// (malformed lines, dropped tool calls) never surface here.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying connection. Safe to call more than once and
// after the stream has already finished.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

func (s *Stream) finish() {
	s.done = true
	s.Close()
}

// feed appends a chunk and processes every complete line in the buffer. The
// trailing fragment after the last newline stays in the carry buffer, so a
// JSON payload (or a multi-byte character inside one) split across chunks is
// reassembled before parsing.
func (s *Stream) feed(chunk []byte) {
	s.carry = append(s.carry, chunk...)
	for {
		idx := bytes.IndexByte(s.carry, '\n')
		if idx < 0 {
			return
		}
		line := string(s.carry[:idx])
		s.carry = s.carry[idx+1:]
		s.processLine(line)
		if s.done {
			return
		}
	}
}

func (s *Stream) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if payload, ok := strings.CutPrefix(line, "data:"); ok {
		line = payload
	}
	line = strings.TrimSpace(line)
	if line == "" || line == doneSentinel {
		return
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(line), &chunk); err != nil {
		// Malformed chunks must not abort the stream.
		debugf("[Stream] skipping malformed chunk: %v", err)
		return
	}
	if len(chunk.Choices) == 0 {
		return
	}

	choice := chunk.Choices[0]

	// The three delta signals are independent and non-exclusive.
	if choice.Delta.Content != "" {
		s.queue = append(s.queue, StreamEvent{Kind: EventText, Text: choice.Delta.Content})
	}
	if choice.Delta.ReasoningContent != "" {
		s.queue = append(s.queue, StreamEvent{Kind: EventThinking, Text: choice.Delta.ReasoningContent})
	}
	for _, delta := range choice.Delta.ToolCalls {
		s.acc.apply(delta)
	}

	switch choice.FinishReason {
	case "tool_calls", "stop":
		s.queue = append(s.queue, s.acc.flush()...)
		if choice.FinishReason == "stop" {
			// Remaining buffered bytes, if any, are discarded.
			s.finish()
		}
	}
}

// toolCallAccumulator reassembles tool calls from deltas keyed by their
// stream index. Arguments fragments are concatenated, never replaced.
type toolCallAccumulator struct {
	entries map[int]*toolCallEntry
	order   []int // insertion order of indexes, the flush order
}

type toolCallEntry struct {
	id   string
	name string
	args strings.Builder
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{entries: map[int]*toolCallEntry{}}
}

func (a *toolCallAccumulator) apply(delta toolCallDelta) {
	entry, ok := a.entries[delta.Index]
	if !ok {
		entry = &toolCallEntry{}
		a.entries[delta.Index] = entry
		a.order = append(a.order, delta.Index)
	}
	if delta.ID != "" {
		entry.id = delta.ID
	}
	if delta.Function.Name != "" {
		entry.name = delta.Function.Name
	}
	entry.args.WriteString(delta.Function.Arguments)
}

// flush converts every complete entry into a tool-call event, in the order
// the entries were first created, and clears the accumulator. Entries
// missing a field or carrying unparseable arguments are dropped; a partial
// call must never abort the turn.
func (a *toolCallAccumulator) flush() []StreamEvent {
	var events []StreamEvent
	for _, idx := range a.order {
		entry := a.entries[idx]
		if entry.id == "" || entry.name == "" || entry.args.Len() == 0 {
			debugf("[Stream] dropping incomplete tool call at index %d (id=%q name=%q)", idx, entry.id, entry.name)
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(entry.args.String()), &args); err != nil {
			debugf("[Stream] dropping tool call %q: bad arguments: %v", entry.name, err)
			continue
		}
		events = append(events, StreamEvent{
			Kind: EventToolCall,
			ToolCall: model.ToolCall{
				ID:        entry.id,
				Name:      entry.name,
				Arguments: args,
			},
		})
	}
	a.entries = map[int]*toolCallEntry{}
	a.order = nil
	return events
}
