package brain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"basegraph.app/recommender/common/llm"
	"basegraph.app/recommender/common/logger"
	"basegraph.app/recommender/internal/catalog"
	"basegraph.app/recommender/internal/chat"
	"go.opentelemetry.io/otel/attribute"
)

// IDGenerator hands out run ids.
type IDGenerator interface {
	New() int64
}

// Dependencies are the collaborators a Coordinator is built from.
type Dependencies struct {
	AgentLLM    llm.AgentClient // Collector and composer turns
	MatchLLM    llm.Client      // Structured catalog matching
	Index       catalog.Index
	LoadCatalog catalog.LoadFunc
	Human       chat.HumanInput
	Out         io.Writer
	IDs         IDGenerator
}

type CoordinatorConfig struct {
	SessionID   int64
	MaxRounds   int
	SearchLimit int
	MaxTokens   int
}

// RunResult describes one pipeline run.
type RunResult struct {
	RunID          int64
	State          State
	AbortReason    AbortReason
	Transitions    []State // Every state visited, starting with StateAwaitInput
	Preferences    string
	Products       string
	Recommendation string
	Err            error
}

// Coordinator drives collector, retriever and composer in sequence for each
// user utterance. Runs are strictly sequential.
type Coordinator struct {
	collector *Collector
	retriever *Retriever
	composer  *Composer
	out       io.Writer
	ids       IDGenerator
	sessionID int64
}

func NewCoordinator(cfg CoordinatorConfig, deps Dependencies) (*Coordinator, error) {
	var missing []error
	if deps.AgentLLM == nil {
		missing = append(missing, errors.New("agent LLM client is required"))
	}
	if deps.MatchLLM == nil {
		missing = append(missing, errors.New("match LLM client is required"))
	}
	if deps.Index == nil {
		missing = append(missing, errors.New("catalog index is required"))
	}
	if deps.LoadCatalog == nil {
		missing = append(missing, errors.New("catalog loader is required"))
	}
	if deps.Human == nil {
		missing = append(missing, errors.New("human input is required"))
	}
	if deps.Out == nil {
		missing = append(missing, errors.New("output writer is required"))
	}
	if deps.IDs == nil {
		missing = append(missing, errors.New("id generator is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, fmt.Errorf("new coordinator: %w", err)
	}

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 12
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = 5
	}

	return &Coordinator{
		collector: NewCollector(deps.AgentLLM, deps.Human, maxRounds, cfg.MaxTokens),
		retriever: NewRetriever(deps.Index, deps.MatchLLM, deps.LoadCatalog, limit),
		composer:  NewComposer(deps.AgentLLM, cfg.MaxTokens),
		out:       deps.Out,
		ids:       deps.IDs,
		sessionID: cfg.SessionID,
	}, nil
}

// Participants returns the collector, retriever and composer participants.
func (c *Coordinator) Participants() []*chat.Participant {
	return []*chat.Participant{
		c.collector.Participant(),
		c.retriever.Participant(),
		c.composer.Participant(),
	}
}

// Run takes one utterance through the pipeline and prints the outcome.
// Failures are reported to the user and returned in RunResult.Err; Run
// itself never panics.
func (c *Coordinator) Run(ctx context.Context, input string) (result RunResult) {
	result = RunResult{
		RunID:       c.ids.New(),
		State:       StateAwaitInput,
		Transitions: []State{StateAwaitInput},
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(c.sessionID),
		RunID:     logger.Ptr(result.RunID),
		Component: "recommender.brain.coordinator",
	})
	span := logger.StartSpan(ctx, "brain.run")
	defer span.End()
	ctx = span.Context()

	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, span, &result, fmt.Errorf("panic: %v", r))
		}
		span.SetAttributes(
			attribute.Int64("run_id", result.RunID),
			attribute.String("state", string(result.State)),
			attribute.String("abort_reason", string(result.AbortReason)),
		)
		slog.InfoContext(ctx, "pipeline run finished",
			"state", result.State,
			"abort_reason", result.AbortReason,
			"transitions", len(result.Transitions))
	}()

	for _, p := range c.Participants() {
		p.Reset()
	}

	if err := c.run(ctx, input, &result); err != nil {
		c.fail(ctx, span, &result, err)
	}
	return result
}

func (c *Coordinator) run(ctx context.Context, input string, result *RunResult) error {
	if err := result.advance(EventInput); err != nil {
		return err
	}

	collected, err := stage(ctx, "collecting", func(ctx context.Context) (*chat.Transcript, error) {
		return c.collector.Collect(ctx, input)
	})
	if err != nil {
		return err
	}

	event, prefs := classifyCollection(collected)
	if err := result.advance(event); err != nil {
		return err
	}
	if result.State == StateAborted {
		c.printf("Unable to fetch user preferences.\n")
		return nil
	}
	result.Preferences = prefs
	c.printf("User preferences: %s\n", prefs)

	if err := result.advance(EventRetrieve); err != nil {
		return err
	}
	problem := fmt.Sprintf("Retrieve products matching these preferences: %s", prefs)
	retrieved, err := stage(ctx, "retrieving", func(ctx context.Context) (*chat.Transcript, error) {
		return c.retriever.Retrieve(ctx, problem, ParsePreferenceList(prefs))
	})
	if err != nil {
		return err
	}

	event, products := classifyRetrieval(retrieved)
	if err := result.advance(event); err != nil {
		return err
	}
	if result.State == StateAborted {
		c.printf("No products retrieved.\n")
		return nil
	}
	result.Products = products
	c.printf("Retrieved products: %s\n", products)

	if err := result.advance(EventCompose); err != nil {
		return err
	}
	message := fmt.Sprintf("User preferences: %s\nRetrieved products: %s", prefs, products)
	composed, err := stage(ctx, "composing", func(ctx context.Context) (*chat.Transcript, error) {
		return c.composer.Compose(ctx, message)
	})
	if err != nil {
		return err
	}

	result.Recommendation = composed.LastContent()
	if result.Recommendation == "" {
		c.printf("Final Product Recommendations:\nNo recommendations found.\n")
	} else {
		c.printf("Final Product Recommendations:\n%s\n", result.Recommendation)
	}
	return result.advance(EventRecommendationOut)
}

// stage runs fn inside its own span with the stage set on the log fields.
func stage(ctx context.Context, name string, fn func(ctx context.Context) (*chat.Transcript, error)) (*chat.Transcript, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(name)})
	span := logger.StartSpan(ctx, "brain."+name)
	defer span.End()

	t, err := fn(span.Context())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	span.SetAttributes(attribute.Int("messages", t.Len()))
	return t, nil
}

func (c *Coordinator) fail(ctx context.Context, span *logger.SpanContext, result *RunResult, err error) {
	result.Err = err
	if next, nextErr := Next(result.State, EventFailed); nextErr == nil {
		result.State = next
		result.Transitions = append(result.Transitions, next)
	}
	span.RecordError(err)
	slog.ErrorContext(ctx, "pipeline run failed", "error", err)
	c.printf("An error occurred during the recommendation flow: %v\n", err)
}

func (r *RunResult) advance(e Event) error {
	next, err := Next(r.State, e)
	if err != nil {
		return err
	}
	r.State = next
	r.Transitions = append(r.Transitions, next)
	if next == StateAborted {
		r.AbortReason = abortReason(e)
	}
	return nil
}

func (c *Coordinator) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
