package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haldun/scarl"
	"github.com/haldun/scarl/internal/pid"
)

// recorder pushes id once per invocation, so tests can observe spawn and
// restart order, then parks in a receive loop.
func recorder(spawned chan string, id string) scarl.Func {
	return func(act *scarl.Actor) {
		spawned <- id
		act.Receive(func(message interface{}) bool { return true })
	}
}

// bomb behaves like recorder but panics when told to
func bomb(spawned chan string, id string) scarl.Func {
	return func(act *scarl.Actor) {
		spawned <- id
		act.Receive(func(message interface{}) bool {
			if message == "boom" {
				panic("boom")
			}
			return true
		})
	}
}

func testOptions(policy Policy) Options {
	opts := NewOptions(policy)
	opts.Terminate = func() {}
	return opts
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a spawn")
		return ""
	}
}

func waitActive(t *testing.T, node *pid.ProtectedPID) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sid, err := QueryPhase(node)
		require.NoError(t, err)
		if sid == Active {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("node never became active")
}

// watchNode installs a termination subscription on the node and returns a
// channel that yields once the node terminates.
func watchNode(node *pid.ProtectedPID) chan error {
	future := scarl.NewFutureActor()
	future.Send(node, "observer")
	died := make(chan error, 1)
	go func() {
		_, err := future.Recv()
		died <- err
	}()
	return died
}

func TestSequentialSpawnOrder(t *testing.T) {
	spawned := make(chan string, 8)
	policy := OneForOne(3, 5*time.Second)

	node, err := Attach(testOptions(policy),
		Worker{ID: "seq-a", Recipe: recorder(spawned, "a")},
		Worker{ID: "seq-b", Recipe: recorder(spawned, "b")},
		Sup{ID: "seq-c", Policy: policy, Children: []Instance{
			Worker{ID: "seq-d", Recipe: recorder(spawned, "d")},
		}},
	)
	require.NoError(t, err)

	sid, err := QueryPhase(node)
	require.NoError(t, err)
	assert.Equal(t, Active, sid)

	order := []string{waitFor(t, spawned), waitFor(t, spawned), waitFor(t, spawned)}
	assert.Equal(t, []string{"a", "b", "d"}, order)

	// the nested node finished its own protocol before confirming upward
	nested := scarl.WhereIs("seq-c")
	require.NotNil(t, nested)
	sid, err = QueryPhase(nested)
	require.NoError(t, err)
	assert.Equal(t, Active, sid)
}

func TestPhaseIsMonotonic(t *testing.T) {
	gate := make(chan struct{})
	worker := Worker{ID: "mono-w", Recipe: func(act *scarl.Actor) {
		<-gate
		act.Receive(func(message interface{}) bool { return true })
	}}

	node, err := Start(testOptions(OneForOne(3, 5*time.Second)), worker)
	require.NoError(t, err)

	// the child never confirms while gated, so the phase must hold
	for i := 0; i < 5; i++ {
		sid, err := QueryPhase(node)
		require.NoError(t, err)
		assert.Equal(t, Configuring, sid)
		time.Sleep(5 * time.Millisecond)
	}

	close(gate)
	waitActive(t, node)

	// and it never regresses
	for i := 0; i < 5; i++ {
		sid, err := QueryPhase(node)
		require.NoError(t, err)
		assert.Equal(t, Active, sid)
	}
}

func TestEmptyChildListTurnsActiveImmediately(t *testing.T) {
	node, err := Attach(testOptions(OneForOne(3, 5*time.Second)))
	require.NoError(t, err)

	sid, err := QueryPhase(node)
	require.NoError(t, err)
	assert.Equal(t, Active, sid)
}

func TestAttachReturnsOnlyWhenActive(t *testing.T) {
	gate := make(chan struct{})
	worker := Worker{ID: "attach-w", Recipe: func(act *scarl.Actor) {
		<-gate
		act.Receive(func(message interface{}) bool { return true })
	}}

	attached := make(chan *pid.ProtectedPID, 1)
	go func() {
		node, err := Attach(testOptions(OneForOne(3, 5*time.Second)), worker)
		if err == nil {
			attached <- node
		}
	}()

	select {
	case <-attached:
		t.Fatal("attach returned before the child confirmed")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate)
	select {
	case node := <-attached:
		sid, err := QueryPhase(node)
		require.NoError(t, err)
		assert.Equal(t, Active, sid)
	case <-time.After(2 * time.Second):
		t.Fatal("attach never returned")
	}
}

func TestAttachFailsWhenBootstrapDies(t *testing.T) {
	prev := attachQueryTimeout
	attachQueryTimeout = 200 * time.Millisecond
	defer func() { attachQueryTimeout = prev }()

	// the child dies during configuring; its exit is a protocol violation
	// there, killing the node, so attach can never observe Active
	worker := Worker{ID: "doomed-w", Recipe: func(act *scarl.Actor) {
		panic("bad bootstrap")
	}}

	_, err := Attach(testOptions(OneForOne(3, 5*time.Second)), worker)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttachTimeout)
}

func TestOneForOneRestartsOnlyFailingChild(t *testing.T) {
	spawnedA := make(chan string, 8)
	spawnedB := make(chan string, 8)

	node, err := Attach(testOptions(OneForOne(2, time.Minute)),
		Worker{ID: "ofo-a", Recipe: bomb(spawnedA, "a")},
		Worker{ID: "ofo-b", Recipe: recorder(spawnedB, "b")},
	)
	require.NoError(t, err)
	waitFor(t, spawnedA)
	waitFor(t, spawnedB)

	scarl.SendNamed("ofo-a", "boom")

	// the failing child comes back
	waitFor(t, spawnedA)
	// its sibling is left alone
	select {
	case <-spawnedB:
		t.Fatal("one_for_one restarted a healthy sibling")
	case <-time.After(100 * time.Millisecond):
	}

	sid, err := QueryPhase(node)
	require.NoError(t, err)
	assert.Equal(t, Active, sid)
}

func TestAllForOneRestartsEverySibling(t *testing.T) {
	spawnedA := make(chan string, 8)
	spawnedB := make(chan string, 8)

	node, err := Attach(testOptions(AllForOne(2, time.Minute)),
		Worker{ID: "afo-a", Recipe: bomb(spawnedA, "a")},
		Worker{ID: "afo-b", Recipe: recorder(spawnedB, "b")},
	)
	require.NoError(t, err)
	waitFor(t, spawnedA)
	waitFor(t, spawnedB)

	scarl.SendNamed("afo-a", "boom")

	// both children are recreated
	waitFor(t, spawnedA)
	waitFor(t, spawnedB)

	sid, err := QueryPhase(node)
	require.NoError(t, err)
	assert.Equal(t, Active, sid)
}

func TestAllForOneExhaustionEscalates(t *testing.T) {
	spawnedA := make(chan string, 8)
	spawnedB := make(chan string, 8)
	terminated := make(chan struct{})

	opts := NewOptions(AllForOne(1, time.Minute))
	opts.Terminate = func() { close(terminated) }

	node, err := Start(opts,
		Worker{ID: "afx-a", Recipe: bomb(spawnedA, "a")},
		Worker{ID: "afx-b", Recipe: recorder(spawnedB, "b")},
	)
	require.NoError(t, err)
	waitFor(t, spawnedA)
	waitFor(t, spawnedB)
	waitActive(t, node)

	died := watchNode(node)

	// first failure restarts the whole sibling set, within budget
	scarl.SendNamed("afx-a", "boom")
	waitFor(t, spawnedA)
	waitFor(t, spawnedB)

	// give the restarted children time to re-register their names
	time.Sleep(50 * time.Millisecond)

	// second failure exhausts the budget at the same bound as one_for_one
	scarl.SendNamed("afx-a", "boom")
	select {
	case err := <-died:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("node did not escalate after exhausting its restart budget")
	}

	// siblings go down with the node instead of being recreated
	select {
	case <-spawnedB:
		t.Fatal("sibling restarted after escalation")
	case <-time.After(100 * time.Millisecond):
	}

	// a non-root node never requests process termination
	select {
	case <-terminated:
		t.Fatal("non-root node requested process termination")
	default:
	}
}

func TestRestartBudgetExhaustionEscalates(t *testing.T) {
	spawned := make(chan string, 8)
	terminated := make(chan struct{})

	opts := NewOptions(OneForOne(1, time.Minute))
	opts.Terminate = func() { close(terminated) }

	node, err := Start(opts, Worker{ID: "ex-a", Recipe: bomb(spawned, "a")})
	require.NoError(t, err)
	waitFor(t, spawned)
	waitActive(t, node)

	died := watchNode(node)

	// first failure is within budget
	scarl.SendNamed("ex-a", "boom")
	waitFor(t, spawned)

	// give the restarted child time to re-register its name
	time.Sleep(50 * time.Millisecond)

	// second failure exhausts it
	scarl.SendNamed("ex-a", "boom")

	select {
	case err := <-died:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("node did not escalate after exhausting its restart budget")
	}

	// a non-root node never requests process termination
	select {
	case <-terminated:
		t.Fatal("non-root node requested process termination")
	default:
	}
}

func TestRootTerminatesProcessBeforeEscalation(t *testing.T) {
	spawned := make(chan string, 8)
	terminated := make(chan struct{})

	opts := NewOptions(OneForOne(0, time.Minute))
	opts.Terminate = func() { close(terminated) }

	node, err := StartRoot(opts, Worker{ID: "root-a", Recipe: bomb(spawned, "a")})
	require.NoError(t, err)
	waitFor(t, spawned)
	waitActive(t, node)

	died := watchNode(node)

	// zero restarts allowed, the very first failure exhausts the budget
	scarl.SendNamed("root-a", "boom")

	select {
	case <-terminated:
	case <-time.After(2 * time.Second):
		t.Fatal("root node did not request process termination")
	}
	select {
	case err := <-died:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("root node did not escalate after requesting termination")
	}
}

func TestUnexpectedMessageWhileConfiguringIsFatal(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	worker := Worker{ID: "viol-w", Recipe: func(act *scarl.Actor) {
		<-gate
		act.Receive(func(message interface{}) bool { return true })
	}}

	node, err := Start(testOptions(OneForOne(3, 5*time.Second)), worker)
	require.NoError(t, err)

	// no child traffic should reach a configuring node; this is one
	died := watchNode(node)

	select {
	case err := <-died:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("configuring node survived a protocol violation")
	}
}

func TestQueryPhaseFailsOnDeadNode(t *testing.T) {
	prev := phaseQueryTimeout
	phaseQueryTimeout = 200 * time.Millisecond
	defer func() { phaseQueryTimeout = prev }()

	gate := make(chan struct{})
	defer close(gate)
	worker := Worker{ID: "dead-w", Recipe: func(act *scarl.Actor) {
		<-gate
		act.Receive(func(message interface{}) bool { return true })
	}}

	node, err := Start(testOptions(OneForOne(3, 5*time.Second)), worker)
	require.NoError(t, err)

	// kill the node via a configuring-phase protocol violation
	died := watchNode(node)
	select {
	case <-died:
	case <-time.After(2 * time.Second):
		t.Fatal("node did not terminate")
	}

	// the query must not block forever on the disposed mailbox
	_, err = QueryPhase(node)
	assert.Error(t, err)
}

func TestStartChildWhileActive(t *testing.T) {
	spawned := make(chan string, 8)

	node, err := Attach(testOptions(OneForOne(3, 5*time.Second)),
		Worker{ID: "dyn-a", Recipe: recorder(spawned, "a")},
	)
	require.NoError(t, err)
	waitFor(t, spawned)

	child, err := StartChild(node, Worker{ID: "dyn-x", Recipe: recorder(spawned, "x")})
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "x", waitFor(t, spawned))

	// duplicate ids are refused
	_, err = StartChild(node, Worker{ID: "dyn-x", Recipe: recorder(spawned, "x")})
	assert.Error(t, err)
}

func TestStartRejectsInvalidInstances(t *testing.T) {
	policy := OneForOne(3, 5*time.Second)

	_, err := Start(testOptions(policy), Worker{ID: "", Recipe: recorder(nil, "")})
	assert.Error(t, err)

	_, err = Start(testOptions(policy), Worker{ID: "no-recipe"})
	assert.Error(t, err)

	_, err = Start(testOptions(policy),
		Worker{ID: "twin", Recipe: recorder(nil, "")},
		Worker{ID: "twin", Recipe: recorder(nil, "")},
	)
	assert.Error(t, err)

	_, err = Start(testOptions(Policy{Strategy: 42, MaxRestarts: 1, Within: time.Second}))
	assert.Error(t, err)
}
