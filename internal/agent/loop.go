// Package agent drives the bounded reasoning loop: model call, parse,
// tool dispatch or terminate, over a fixed-format text protocol.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMaxIterations bounds one reasoning loop run.
const DefaultMaxIterations = 5

// modelErrorSentinel stands in for the assistant turn when the model
// call fails. The loop keeps going; a later iteration may still recover.
const modelErrorSentinel = "Error: Unable to process your agent execute request at this time"

// ModelClient is the language-model collaborator.
type ModelClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Dispatcher maps a tool name to an invocation and normalizes the result
// to text. Implementations never fail; errors come back as text.
type Dispatcher interface {
	Dispatch(ctx context.Context, tool, args string) string
}

// Message is one entry in the running model conversation.
type Message struct {
	Role    string
	Content string
}

// State is the loop's terminal state.
type State int

const (
	// StateRunning is the initial, non-terminal state.
	StateRunning State = iota
	// StateAnswered means an Answer directive terminated the loop.
	StateAnswered
	// StateExhausted means the iteration budget ran out without an
	// Answer. Not an error; the accumulated answer may be empty.
	StateExhausted
)

// Result accumulates one loop run.
type Result struct {
	Answer       string
	Observations []string
	Trace        string
	State        State
}

// Controller runs the reasoning loop.
type Controller struct {
	model         ModelClient
	tools         Dispatcher
	maxIterations int
	logger        *logrus.Logger
}

// NewController creates a controller. maxIterations <= 0 selects
// DefaultMaxIterations.
func NewController(model ModelClient, tools Dispatcher, maxIterations int, logger *logrus.Logger) *Controller {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		model:         model,
		tools:         tools,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run drives the loop from an initial query until an Answer directive or
// iteration exhaustion. The parsing is pure text processing; the only
// blocking points are the model call and tool dispatch.
func (c *Controller) Run(ctx context.Context, systemPrompt, query string) Result {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}

	result := Result{State: StateRunning}
	var trace []string
	nextPrompt := query

	for iteration := 0; iteration < c.maxIterations; iteration++ {
		if nextPrompt != "" {
			messages = append(messages, Message{Role: "user", Content: nextPrompt})
		}
		nextPrompt = ""

		completion, err := c.model.Complete(ctx, messages)
		if err != nil {
			c.logger.WithError(err).Error("model call failed")
			completion = modelErrorSentinel
		}
		messages = append(messages, Message{Role: "assistant", Content: completion})
		trace = append(trace, fmt.Sprintf("Iteration %d:\n%s", iteration+1, completion))

		ev := Parse(completion)
		if ev.Kind == EventAnswer {
			result.Answer = ev.Text
			result.State = StateAnswered
			break
		}

		if ev.HasNote {
			result.Observations = append(result.Observations, ev.Note)
		}

		if ev.Kind == EventAction {
			observation := c.tools.Dispatch(ctx, ev.Tool, ev.Args)
			nextPrompt = fmt.Sprintf("Observation: %s", observation)
		}
	}

	if result.State == StateRunning {
		result.State = StateExhausted
	}
	result.Trace = strings.Join(trace, "\n")
	return result
}
