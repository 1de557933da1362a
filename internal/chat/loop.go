// Package chat runs the interactive question-and-answer console.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/researchatlas/atlas/internal/rag"
)

// ExitCommand ends the session, matched case-insensitively after trimming.
const ExitCommand = "exit"

// State is the loop state.
type State int

const (
	AwaitingInput State = iota
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, query string, opts ...rag.RetrieveOption) (*rag.QueryResult, error)
}

// Loop reads questions line by line and writes answers.
type Loop struct {
	answerer    Answerer
	in          *bufio.Reader
	out         io.Writer
	prompt      string
	greeting    string
	showSources bool
	state       State
	asked       int
}

// Option configures a Loop.
type Option func(*Loop)

// WithPrompt sets the input prompt.
func WithPrompt(prompt string) Option {
	return func(l *Loop) {
		l.prompt = prompt
	}
}

// WithGreeting sets text printed once before the first prompt.
func WithGreeting(greeting string) Option {
	return func(l *Loop) {
		l.greeting = greeting
	}
}

// WithSources prints the retrieved documents under each answer.
func WithSources(show bool) Option {
	return func(l *Loop) {
		l.showSources = show
	}
}

// NewLoop creates a loop reading from in and writing to out.
func NewLoop(answerer Answerer, in io.Reader, out io.Writer, opts ...Option) *Loop {
	l := &Loop{
		answerer: answerer,
		in:       bufio.NewReader(in),
		out:      out,
		prompt:   "You: ",
		state:    AwaitingInput,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	return l.state
}

// Asked returns how many questions were sent to the answerer.
func (l *Loop) Asked() int {
	return l.asked
}

// Run reads input until the exit command, end of input or context cancellation.
// Answer failures are printed and the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	if l.greeting != "" {
		fmt.Fprintln(l.out, l.greeting)
	}

	for l.state == AwaitingInput {
		if err := ctx.Err(); err != nil {
			l.state = Terminated
			return err
		}

		fmt.Fprint(l.out, l.prompt)
		// Lines have no length limit; a final line without a newline still counts.
		line, err := l.in.ReadString('\n')
		if line != "" {
			l.Handle(ctx, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if l.state == AwaitingInput {
				l.state = Terminated
				fmt.Fprintln(l.out)
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

// Handle processes one input line and returns the resulting state.
func (l *Loop) Handle(ctx context.Context, line string) State {
	input := strings.TrimSpace(line)
	switch {
	case strings.EqualFold(input, ExitCommand):
		fmt.Fprintln(l.out, "Goodbye!")
		l.state = Terminated
	case input == "":
		// re-prompt
	default:
		l.asked++
		result, err := l.answerer.Answer(ctx, input)
		if err != nil {
			fmt.Fprintf(l.out, "\nError: %v\n", err)
			fmt.Fprintf(l.out, "Please try again or type '%s' to quit.\n\n", ExitCommand)
			break
		}
		fmt.Fprintf(l.out, "\nAI: %s\n", result.Answer)
		if l.showSources {
			l.printSources(result)
		}
		fmt.Fprintln(l.out)
	}
	return l.state
}

func (l *Loop) printSources(result *rag.QueryResult) {
	if len(result.Documents) == 0 {
		return
	}
	fmt.Fprintln(l.out, "\nSources:")
	for i, doc := range result.Documents {
		fmt.Fprintf(l.out, "  %d. [%.3f] %s (%s)\n", i+1, doc.Score, doc.Snippet(60), doc.ID)
	}
}
