// Package command turns inbound SMS text into wallet operations and replies.
package command

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Shootle/txtcoin/internal/logger"
	"github.com/Shootle/txtcoin/internal/metrics"
	"github.com/Shootle/txtcoin/internal/model"
	"go.uber.org/zap"
)

// Handler executes one command and returns the reply for the sender.
type Handler interface {
	Handle(ctx context.Context, cmd model.Command) (string, error)
}

type HandlerFunc func(ctx context.Context, cmd model.Command) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd model.Command) (string, error) {
	return f(ctx, cmd)
}

// ReplyChannel sends SMS back to users.
type ReplyChannel interface {
	Send(ctx context.Context, to, body string) error
}

// Recorder stores an audit event per dispatched command.
type Recorder interface {
	Insert(ctx context.Context, ev model.CommandEvent) error
}

type entry struct {
	handler Handler
	usage   string
	summary string
}

// Router owns the dispatch table. Commands are registered before the router
// starts serving; afterwards the table is only read.
type Router struct {
	commands map[string]entry
	replies  ReplyChannel
	recorder Recorder
	timeout  time.Duration
}

type Option func(*Router)

// WithTimeout bounds each command's handler; replies get their own deadline.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) { r.timeout = d }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Router) { r.recorder = rec }
}

func NewRouter(replies ReplyChannel, opts ...Option) *Router {
	r := &Router{
		commands: make(map[string]entry),
		replies:  replies,
		timeout:  15 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds a command to the dispatch table.
func (r *Router) Register(name, usage, summary string, h Handler) {
	r.commands[name] = entry{handler: h, usage: usage, summary: summary}
}

// Names returns the registered command names in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch parses message, runs the matching handler and sends exactly one
// reply to sender.
func (r *Router) Dispatch(ctx context.Context, sender, message string) {
	start := time.Now()
	cmd := model.ParseCommand(sender, message)

	reply, kind, err := r.run(ctx, cmd)

	label := cmd.Name
	outcome := model.OutcomeOK
	if _, ok := r.commands[cmd.Name]; !ok {
		label = "unknown"
	}
	if err != nil {
		outcome = kind.Outcome()
		if kind == KindTransportError {
			logger.Log.Error("command failed",
				zap.String("sender", sender), zap.String("command", cmd.Name), zap.Error(err))
		} else {
			logger.Log.Info("command rejected",
				zap.String("sender", sender), zap.String("command", cmd.Name), zap.String("outcome", outcome.String()))
		}
	}
	metrics.CommandsTotal.WithLabelValues(label, outcome.String()).Inc()

	// the handler's deadline may be spent; the reply still has to go out
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.replies.Send(sendCtx, sender, reply); err != nil {
		logger.Log.Error("reply not delivered", zap.String("sender", sender), zap.Error(err))
	}

	r.record(sendCtx, model.CommandEvent{
		Sender:     sender,
		Command:    cmd.Name,
		Args:       strings.Join(cmd.Args, " "),
		Outcome:    outcome,
		Reply:      reply,
		DurationMs: time.Since(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	})
}

func (r *Router) run(ctx context.Context, cmd model.Command) (string, Kind, error) {
	e, ok := r.commands[cmd.Name]
	if !ok {
		err := invalidCommand(cmd.Name)
		reply, kind := classify(err)
		return reply, kind, err
	}

	hctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := e.handler.Handle(hctx, cmd)
	if err != nil {
		reply, kind := classify(err)
		return reply, kind, err
	}
	return reply, 0, nil
}

func (r *Router) record(ctx context.Context, ev model.CommandEvent) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Insert(ctx, ev); err != nil {
		logger.Log.Warn("record command event", zap.Error(err))
	}
}
