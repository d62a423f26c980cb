package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Shootle/txtcoin/internal/kafka"
	"github.com/Shootle/txtcoin/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chanSource serves queued messages and blocks until ctx ends once drained.
type chanSource struct {
	in chan kafka.Message

	mu        sync.Mutex
	committed []int64
	byPart    map[int][]int64
}

func newChanSource(msgs ...kafka.Message) *chanSource {
	s := &chanSource{in: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		s.in <- m
	}
	return s
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.in:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(_ context.Context, m kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, m.Offset)
	if s.byPart == nil {
		s.byPart = make(map[int][]int64)
	}
	s.byPart[m.Partition] = append(s.byPart[m.Partition], m.Offset)
	return nil
}

func (s *chanSource) partitionCommits() map[int][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int][]int64, len(s.byPart))
	for p, offs := range s.byPart {
		out[p] = append([]int64(nil), offs...)
	}
	return out
}

func (s *chanSource) commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls map[string][]string // sender → bodies in order
	total int
}

func (d *recordingDispatcher) Dispatch(_ context.Context, sender, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string][]string)
	}
	d.calls[sender] = append(d.calls[sender], message)
	d.total++
}

func (d *recordingDispatcher) snapshot() map[string][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string][]string, len(d.calls))
	for k, v := range d.calls {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func envelope(t *testing.T, offset int64, id, from, body string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(model.Envelope{ID: id, Inbound: model.Inbound{From: from, Body: body}})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Partition: partitionOf(from), Offset: offset, Key: []byte(from), Value: b}
}

// partitionOf stands in for the producer's hash balancer: one sender, one partition.
func partitionOf(from string) int {
	if from == "" {
		return 0
	}
	return int(from[len(from)-1]-'0') % 6
}

// runUntil runs the worker until every message is committed.
func runUntil(t *testing.T, w *Commands, src *chanSource, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for src.commits() < want {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("committed %d of %d", src.commits(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestCommandsDispatchesInSenderOrder(t *testing.T) {
	var msgs []kafka.Message
	for i := 0; i < 20; i++ {
		from := "+1555000" + strconv.Itoa(i%3)
		msgs = append(msgs, envelope(t, int64(i), "env-"+strconv.Itoa(i), from, "cmd "+strconv.Itoa(i)))
	}
	src := newChanSource(msgs...)
	disp := &recordingDispatcher{}
	w := NewCommands(src, disp, nil)
	w.Workers = 4

	runUntil(t, w, src, len(msgs))

	want := map[string][]string{}
	for i := 0; i < 20; i++ {
		from := "+1555000" + strconv.Itoa(i%3)
		want[from] = append(want[from], "cmd "+strconv.Itoa(i))
	}
	if diff := cmp.Diff(want, disp.snapshot()); diff != "" {
		t.Fatalf("dispatch order (-want +got):\n%s", diff)
	}
}

// slowDispatcher holds every command from one sender so later partitions get ahead.
type slowDispatcher struct {
	recordingDispatcher
	slow string
}

func (d *slowDispatcher) Dispatch(ctx context.Context, sender, message string) {
	if sender == d.slow {
		time.Sleep(20 * time.Millisecond)
	}
	d.recordingDispatcher.Dispatch(ctx, sender, message)
}

func TestCommandsCommitsEachPartitionInOrder(t *testing.T) {
	// six senders on six partitions share three shards
	var msgs []kafka.Message
	next := map[int]int64{}
	for i := 0; i < 30; i++ {
		from := "+1555000" + strconv.Itoa(i%6)
		p := partitionOf(from)
		msgs = append(msgs, envelope(t, next[p], "env-"+strconv.Itoa(i), from, "balance"))
		next[p]++
	}
	src := newChanSource(msgs...)
	w := NewCommands(src, &slowDispatcher{slow: "+15550000"}, nil)
	w.Workers = 3

	runUntil(t, w, src, len(msgs))

	for p, offs := range src.partitionCommits() {
		for i := 1; i < len(offs); i++ {
			if offs[i] <= offs[i-1] {
				t.Fatalf("partition %d committed out of order: %v", p, offs)
			}
		}
	}
}

func TestCommandsCommitsPoisonMessages(t *testing.T) {
	src := newChanSource(
		kafka.Message{Offset: 1, Value: []byte("{not json")},
		envelope(t, 2, "", "+15550001", "balance"), // missing id
		envelope(t, 3, "env-3", "+15550001", "balance"),
	)
	disp := &recordingDispatcher{}

	runUntil(t, NewCommands(src, disp, nil), src, 3)

	if got := disp.snapshot()["+15550001"]; len(got) != 1 {
		t.Fatalf("dispatched %v, want only the valid envelope", got)
	}
}

func TestCommandsSkipsRedeliveredEnvelope(t *testing.T) {
	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rds.Close()

	src := newChanSource(
		envelope(t, 1, "env-1", "+15550001", "send 1 mbtc +15550002"),
		envelope(t, 1, "env-1", "+15550001", "send 1 mbtc +15550002"),
	)
	disp := &recordingDispatcher{}

	runUntil(t, NewCommands(src, disp, NewRedisSeen(rds, time.Hour)), src, 2)

	if got := disp.snapshot()["+15550001"]; len(got) != 1 {
		t.Fatalf("dispatched %d times, want 1", len(got))
	}
}

type brokenSeen struct{}

func (brokenSeen) First(context.Context, string) (bool, error) { return false, errors.New("redis down") }

func TestCommandsDispatchesWhenSeenFails(t *testing.T) {
	src := newChanSource(envelope(t, 1, "env-1", "+15550001", "balance"))
	disp := &recordingDispatcher{}

	runUntil(t, NewCommands(src, disp, brokenSeen{}), src, 1)

	if got := disp.snapshot()["+15550001"]; len(got) != 1 {
		t.Fatalf("dispatched %v", got)
	}
}

func TestCommandsRequiresDependencies(t *testing.T) {
	if err := (&Commands{}).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
