package dag_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrclmr/n2a/internal/dag"
)

type sourceExecOnce struct {
	executedTimes atomic.Int32
}

func (c *sourceExecOnce) Run(_ context.Context, _ []int) (int, error) {
	time.Sleep(1 * time.Millisecond)
	c.executedTimes.Add(1)
	return 1, nil
}

func (c *sourceExecOnce) Name() string {
	return "sourceExecOnce"
}

func (c *sourceExecOnce) Hash() string {
	return "sourceExecOnce"
}

type rootNode struct {
	id string
}

func (r *rootNode) Run(_ context.Context, results []int) (int, error) {
	return results[0], nil
}

func (r *rootNode) Name() string {
	return r.id
}

func (r *rootNode) Hash() string {
	return r.id
}

func TestDag_LeafNodesOnlyCalledOnce(t *testing.T) {
	d := dag.New[int]()
	srcInt := &sourceExecOnce{}

	rootsLen := 50

	edges := make([][2]dag.Node[int], rootsLen)

	for i := range rootsLen {
		root := &rootNode{id: fmt.Sprintf("root%02d", i)}
		edges[i] = [2]dag.Node[int]{root, srcInt}
	}

	err := d.AddEdges(edges)
	if err != nil {
		t.Fatalf("failed to add edge: %v", err)
	}

	length := 0
	for result, err := range d.RunRootNodes(t.Context()) {
		if err != nil {
			t.Fatalf("failed to run root nodes: %v", err)
		}
		if result != 1 {
			t.Fatalf("failed to run root nodes: want 1, got %d", result)
		}
		length++
	}
	if length != rootsLen {
		t.Fatalf("failed to run root nodes: want %d, got %d", rootsLen, length)
	}

	executed := srcInt.executedTimes.Load()
	if executed != 1 {
		t.Fatalf("failed to run sourceInt node: want 1, got %d", executed)
	}
}

type sumInt struct {
	value string
}

func (s *sumInt) Run(_ context.Context, values []int) (int, error) {
	sum := 0
	for i := range values {
		sum += values[i]
	}
	return sum, nil
}

func (s *sumInt) Name() string {
	return s.value
}

func (s *sumInt) Hash() string {
	return s.value
}

type sourceInt struct {
	value string
}

func (s *sourceInt) Run(_ context.Context, _ []int) (int, error) {
	return 1, nil
}

func (s *sourceInt) Name() string {
	return s.value
}

func (s *sourceInt) Hash() string {
	return s.value
}

func TestDag_CorrectValues(t *testing.T) {
	d := dag.New[int]()

	sumRoot1 := &sumInt{value: "sum1"}
	sumRoot2 := &sumInt{value: "sum1"}
	sum2 := &sumInt{value: "sum2"}
	sum3 := &sumInt{value: "sum3"}

	source1 := &sourceInt{value: "source1"}
	source2 := &sourceInt{value: "source2"}
	source3 := &sourceInt{value: "source3"}
	source4 := &sourceInt{value: "source4"}

	chains := [][]dag.Node[int]{
		{sumRoot1, sum2, source1},
		{sumRoot1, sum2, source2},
		{sumRoot1, sum3, source3},
		{sumRoot1, sum3, source4},
		{sumRoot2, sum2, source1},
		{sumRoot2, sum2, source2},
		{sumRoot2, sum3, source3},
		{sumRoot2, sum3, source4},
	}
	for _, edge := range chains {
		err := d.AddChain(edge...)
		if err != nil {
			t.Fatalf("failed to add chain: %v", err)
		}
	}

	for value, err := range d.RunRootNodes(t.Context()) {
		if err != nil {
			t.Fatalf("expected no error: %v", err)
		}
		if value != 4 {
			t.Fatalf("failed to get correct return value: expected 4, got %d", value)
		}
	}
}

func TestDag_OrphanedNode(t *testing.T) {
	d := dag.New[int]()

	sum := &sumInt{value: "sum"}
	source1 := &sourceInt{value: "source1"}
	source2 := &sourceInt{value: "source2"}

	orphaned := &sourceInt{value: "orphaned"}

	chains := [][]dag.Node[int]{
		{sum, source1},
		{sum, source2},
		{orphaned},
	}
	for _, chain := range chains {
		err := d.AddChain(chain...)
		if err != nil {
			t.Fatalf("failed to add chain: %v", err)
		}
	}

	for _, err := range d.RunRootNodes(t.Context()) {
		if err == nil {
			t.Fatal("expected orphaned node error")
		}
	}
}

func TestDag_AddChain(t *testing.T) {
	d := dag.New[int]()

	sum1 := &sumInt{value: "sum1"}
	sum2 := &sumInt{value: "sum2"}
	sum3 := &sumInt{value: "sum3"}

	source1 := &sourceInt{value: "source1"}
	source2 := &sourceInt{value: "source2"}
	source3 := &sourceInt{value: "source3"}
	source4 := &sourceInt{value: "source4"}

	chains := [][]dag.Node[int]{
		{sum3, sum1, source1},
		{sum3, sum1, source2},
		{sum3, sum2, source3},
		{sum3, sum2, source4},
		// duplicated chain is ignored
		{sum3, sum2, source4},
	}
	for _, chain := range chains {
		err := d.AddChain(chain...)
		if err != nil {
			t.Fatalf("failed to add chain: %v", err)
		}
	}

	for value, err := range d.RunRootNodes(t.Context()) {
		if err != nil {
			t.Fatalf("expected no error: %v", err)
		}
		if value != 4 {
			t.Fatalf("failed to get correct return value: expected 4, got %d", value)
		}
	}
}

func TestDag_CyclicDependency(t *testing.T) {
	d := dag.New[int]()

	source1 := &sourceInt{value: "source1"}
	source2 := &sourceInt{value: "source2"}

	edges := [][2]dag.Node[int]{
		{source1, source2},
		{source2, source1},
	}
	err := d.AddEdges(edges)
	if err == nil {
		t.Fatalf("failed to detect cyclic dependency")
	}
}

type limitedNode struct {
	id      string
	running *atomic.Int32
	peak    *atomic.Int32
}

func (l *limitedNode) Run(_ context.Context, _ []int) (int, error) {
	cur := l.running.Add(1)
	for {
		p := l.peak.Load()
		if cur <= p || l.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	l.running.Add(-1)
	return 1, nil
}

func (l *limitedNode) Name() string {
	return l.id
}

func (l *limitedNode) Hash() string {
	return l.id
}

func TestDag_WithLimit(t *testing.T) {
	for _, limit := range []int{1, 3} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			d := dag.New[int](dag.WithLimit(limit))
			running := &atomic.Int32{}
			peak := &atomic.Int32{}
			src := &sourceInt{value: "source"}

			for i := range 12 {
				root := &limitedNode{id: fmt.Sprintf("root%02d", i), running: running, peak: peak}
				if err := d.AddEdge(root, src); err != nil {
					t.Fatalf("failed to add edge: %v", err)
				}
			}

			count := 0
			for _, err := range d.RunRootNodes(t.Context()) {
				if err != nil {
					t.Fatalf("failed to run root nodes: %v", err)
				}
				count++
			}
			if count != 12 {
				t.Fatalf("want 12 results, got %d", count)
			}
			if got := peak.Load(); got > int32(limit) {
				t.Fatalf("want at most %d concurrent roots, got %d", limit, got)
			}
		})
	}
}

var errBoom = errors.New("boom")

type failingNode struct {
	id string
}

func (f *failingNode) Run(_ context.Context, _ []int) (int, error) {
	return 0, errBoom
}

func (f *failingNode) Name() string {
	return f.id
}

func (f *failingNode) Hash() string {
	return f.id
}

type blockingNode struct {
	id string
}

func (b *blockingNode) Run(ctx context.Context, _ []int) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (b *blockingNode) Name() string {
	return b.id
}

func (b *blockingNode) Hash() string {
	return b.id
}

func TestDag_FirstErrorCancelsOthers(t *testing.T) {
	d := dag.New[int]()
	src := &sourceInt{value: "source"}

	edges := [][2]dag.Node[int]{
		{&blockingNode{id: "blocking"}, src},
		{&failingNode{id: "failing"}, src},
	}
	if err := d.AddEdges(edges); err != nil {
		t.Fatalf("failed to add edges: %v", err)
	}

	var errs []error
	for _, err := range d.RunRootNodes(t.Context()) {
		errs = append(errs, err)
	}
	if len(errs) != 1 {
		t.Fatalf("want exactly one yielded error, got %v", errs)
	}
	if !errors.Is(errs[0], errBoom) {
		t.Fatalf("want first error %v, got %v", errBoom, errs[0])
	}
}

type recordingNode struct {
	id   string
	fail bool
	mu   *sync.Mutex
	ran  *[]string
}

func (r *recordingNode) Run(_ context.Context, _ []int) (int, error) {
	r.mu.Lock()
	*r.ran = append(*r.ran, r.id)
	r.mu.Unlock()
	if r.fail {
		return 0, errBoom
	}
	return 1, nil
}

func (r *recordingNode) Name() string {
	return r.id
}

func (r *recordingNode) Hash() string {
	return r.id
}

func TestDag_WithLimitOneRunsInInsertionOrder(t *testing.T) {
	d := dag.New[int](dag.WithLimit(1))
	mu := &sync.Mutex{}
	var ran []string
	src := &sourceInt{value: "source"}

	var want []string
	for i := range 12 {
		id := fmt.Sprintf("root%02d", i)
		want = append(want, id)
		if err := d.AddEdge(&recordingNode{id: id, mu: mu, ran: &ran}, src); err != nil {
			t.Fatalf("failed to add edge: %v", err)
		}
	}

	for _, err := range d.RunRootNodes(t.Context()) {
		if err != nil {
			t.Fatalf("failed to run root nodes: %v", err)
		}
	}
	if !slices.Equal(ran, want) {
		t.Fatalf("want run order %v, got %v", want, ran)
	}
}

func TestDag_NothingStartsAfterFailure(t *testing.T) {
	d := dag.New[int](dag.WithLimit(1))
	mu := &sync.Mutex{}
	var ran []string
	src := &sourceInt{value: "source"}

	for i := range 6 {
		root := &recordingNode{id: fmt.Sprintf("root%02d", i), fail: i == 2, mu: mu, ran: &ran}
		if err := d.AddEdge(root, src); err != nil {
			t.Fatalf("failed to add edge: %v", err)
		}
	}

	var results []int
	var errs []error
	for val, err := range d.RunRootNodes(t.Context()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, val)
	}
	if len(errs) != 1 || !errors.Is(errs[0], errBoom) {
		t.Fatalf("want one error %v, got %v", errBoom, errs)
	}
	if want := []string{"root00", "root01", "root02"}; !slices.Equal(ran, want) {
		t.Fatalf("want run nodes %v, got %v", want, ran)
	}
	if len(results) > 2 {
		t.Fatalf("want at most the results before the failure, got %v", results)
	}
}
