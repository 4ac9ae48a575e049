package webview

import (
	"testing"
	"time"
)

var testBounds = Bounds{X: 10, Y: 20, Width: 640, Height: 480}

func testReducer() Reducer {
	return Reducer{GCGrace: 30 * time.Second}
}

func testNow() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func createWorld(t *testing.T, r Reducer, now time.Time) *World {
	t.Helper()
	world := r.Reduce(NewWorld(), Command{
		Op:      OpCreate,
		ViewID:  "view-a",
		URL:     "https://example.com/doc",
		Bounds:  testBounds,
		Profile: "profile-x",
	}, now)
	if world.Len() != 1 {
		t.Fatalf("world len = %d, want 1", world.Len())
	}
	return world
}

func TestReduceUnknownIDReturnsSameWorld(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	commands := []Command{
		{Op: OpUpdateBounds, ViewID: "missing", Bounds: testBounds},
		{Op: OpUpdateURL, ViewID: "missing", URL: "https://example.com"},
		{Op: OpMarkLoading, ViewID: "missing"},
		{Op: OpMarkReady, ViewID: "missing", CanGoBack: true},
		{Op: OpMarkError, ViewID: "missing", ErrorCode: -2, ErrorMessage: "ERR_FAILED"},
		{Op: OpRetry, ViewID: "missing"},
		{Op: OpRemove, ViewID: "missing"},
		{Op: OpAcquire, ViewID: "missing"},
		{Op: OpRelease, ViewID: "missing"},
	}
	for _, cmd := range commands {
		if got := r.Reduce(world, cmd, now); got != world {
			t.Fatalf("%s on unknown id returned a new world", cmd.Op)
		}
	}
}

func TestCreateTracksLoadingEntry(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	entry, ok := world.Get("view-a")
	if !ok {
		t.Fatal("expected entry for view-a")
	}
	if entry.Status != StatusLoading() {
		t.Fatalf("status = %+v, want loading", entry.Status)
	}
	if entry.RefCount != 1 {
		t.Fatalf("refcount = %d, want 1", entry.RefCount)
	}
	if entry.GCCandidate {
		t.Fatal("new entry must not be a collection candidate")
	}
	if !entry.LastAccess.Equal(now) {
		t.Fatalf("last access = %v, want %v", entry.LastAccess, now)
	}
	if entry.Layout != LayoutInline {
		t.Fatalf("layout = %q, want default inline", entry.Layout)
	}
	if entry.URL != "https://example.com/doc" || entry.Profile != "profile-x" {
		t.Fatalf("entry = %+v, want url and profile preserved", entry)
	}
}

func TestCreateExistingIDIsNoOp(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	got := r.Reduce(world, Command{
		Op:     OpCreate,
		ViewID: "view-a",
		URL:    "https://example.com/other",
	}, now.Add(time.Second))
	if got != world {
		t.Fatal("create on existing id returned a new world")
	}
	entry, _ := got.Get("view-a")
	if entry.URL != "https://example.com/doc" {
		t.Fatalf("url = %q, want original url kept", entry.URL)
	}
}

func TestStickyErrorSurvivesLateSignals(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{
		Op:           OpMarkError,
		ViewID:       "view-a",
		ErrorCode:    -6,
		ErrorMessage: "ERR_CONNECTION_REFUSED",
	}, now)

	cases := []struct {
		name string
		cmd  Command
	}{
		{name: "mark ready", cmd: Command{Op: OpMarkReady, ViewID: "view-a", CanGoBack: false}},
		{name: "mark loading", cmd: Command{Op: OpMarkLoading, ViewID: "view-a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Reduce(world, tc.cmd, now.Add(time.Second))
			if got != world {
				t.Fatal("late signal changed an errored pane")
			}
			entry, _ := got.Get("view-a")
			if entry.Status != StatusError(-6, "ERR_CONNECTION_REFUSED") {
				t.Fatalf("status = %+v, want error kept", entry.Status)
			}
		})
	}
}

func TestMarkErrorAlwaysWins(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpMarkReady, ViewID: "view-a", CanGoBack: true}, now)

	world = r.Reduce(world, Command{
		Op:           OpMarkError,
		ViewID:       "view-a",
		ErrorCode:    -105,
		ErrorMessage: "ERR_NAME_NOT_RESOLVED",
	}, now)
	entry, _ := world.Get("view-a")
	if entry.Status.Phase != PhaseError {
		t.Fatalf("phase = %q, want error", entry.Status.Phase)
	}

	// A second identical failure changes nothing.
	if got := r.Reduce(world, Command{
		Op:           OpMarkError,
		ViewID:       "view-a",
		ErrorCode:    -105,
		ErrorMessage: "ERR_NAME_NOT_RESOLVED",
	}, now); got != world {
		t.Fatal("identical failure produced a new world")
	}
}

func TestRetryOnlyFromError(t *testing.T) {
	r := testReducer()
	now := testNow()

	cases := []struct {
		name    string
		prepare Command
		want    Phase
	}{
		{name: "from error", prepare: Command{Op: OpMarkError, ViewID: "view-a", ErrorCode: -6, ErrorMessage: "ERR_CONNECTION_REFUSED"}, want: PhaseLoading},
		{name: "from ready", prepare: Command{Op: OpMarkReady, ViewID: "view-a", CanGoBack: true}, want: PhaseReady},
		{name: "from loading", prepare: Command{Op: OpMarkLoading, ViewID: "view-a"}, want: PhaseLoading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			world := createWorld(t, r, now)
			world = r.Reduce(world, tc.prepare, now)

			got := r.Reduce(world, Command{Op: OpRetry, ViewID: "view-a"}, now)
			entry, _ := got.Get("view-a")
			if entry.Status.Phase != tc.want {
				t.Fatalf("phase = %q, want %q", entry.Status.Phase, tc.want)
			}
			if tc.want != PhaseLoading && got != world {
				t.Fatal("refused retry returned a new world")
			}
		})
	}
}

func TestRemoveDropsEntryRegardlessOfRefCount(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpAcquire, ViewID: "view-a"}, now)

	world = r.Reduce(world, Command{Op: OpRemove, ViewID: "view-a"}, now)
	if _, ok := world.Get("view-a"); ok {
		t.Fatal("expected entry removed")
	}
	if world.Len() != 0 {
		t.Fatalf("world len = %d, want 0", world.Len())
	}
}

func TestReleaseClampsAtZero(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	for i := 0; i < 4; i++ {
		world = r.Reduce(world, Command{Op: OpRelease, ViewID: "view-a"}, now)
	}
	entry, _ := world.Get("view-a")
	if entry.RefCount != 0 {
		t.Fatalf("refcount = %d, want 0", entry.RefCount)
	}
	if !entry.GCCandidate {
		t.Fatal("zero-reference entry must be a collection candidate")
	}
}

func TestAcquireClearsCandidateAndBumpsAccess(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "view-a"}, now)

	later := now.Add(10 * time.Second)
	world = r.Reduce(world, Command{Op: OpAcquire, ViewID: "view-a"}, later)
	entry, _ := world.Get("view-a")
	if entry.RefCount != 1 {
		t.Fatalf("refcount = %d, want 1", entry.RefCount)
	}
	if entry.GCCandidate {
		t.Fatal("acquire must clear the collection candidate flag")
	}
	if !entry.LastAccess.Equal(later) {
		t.Fatalf("last access = %v, want %v", entry.LastAccess, later)
	}
}

func TestSweepLifecycle(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	world = r.Reduce(world, Command{Op: OpAcquire, ViewID: "view-a"}, now)
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "view-a"}, now)
	entry, _ := world.Get("view-a")
	if entry.RefCount != 1 || entry.GCCandidate {
		t.Fatalf("entry = %+v, want one reference and no candidate flag", entry)
	}

	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "view-a"}, now)
	entry, _ = world.Get("view-a")
	if entry.RefCount != 0 || !entry.GCCandidate {
		t.Fatalf("entry = %+v, want zero references and candidate flag", entry)
	}

	// Inside the grace period the sweep leaves the entry alone.
	if got := r.Reduce(world, Command{Op: OpGC}, now); got != world {
		t.Fatal("sweep inside grace period changed the world")
	}

	// At exactly the grace boundary nothing is eligible either.
	boundary := now.Add(r.GCGrace)
	if got := r.Reduce(world, Command{Op: OpGC}, boundary); got != world {
		t.Fatal("sweep at grace boundary changed the world")
	}

	expired := now.Add(r.GCGrace + time.Millisecond)
	got := r.Reduce(world, Command{Op: OpGC}, expired)
	if _, ok := got.Get("view-a"); ok {
		t.Fatal("expected entry collected after grace period")
	}

	// Idempotent: a second sweep has nothing left to do.
	if again := r.Reduce(got, Command{Op: OpGC}, expired); again != got {
		t.Fatal("second sweep changed the world")
	}
}

func TestSweepSkipsReacquiredEntries(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "view-a"}, now)
	world = r.Reduce(world, Command{Op: OpAcquire, ViewID: "view-a"}, now)

	expired := now.Add(r.GCGrace + time.Minute)
	if got := r.Reduce(world, Command{Op: OpGC}, expired); got != world {
		t.Fatal("sweep collected a re-acquired entry")
	}
}

func TestSweepOnlyCollectsEligibleEntries(t *testing.T) {
	r := testReducer()
	now := testNow()

	// Three panes: one eligible, one still referenced, one recently touched.
	world := NewWorld()
	for _, cmd := range []Command{
		{Op: OpCreate, ViewID: "stale", URL: "https://example.com/a"},
		{Op: OpCreate, ViewID: "held", URL: "https://example.com/b"},
		{Op: OpCreate, ViewID: "fresh", URL: "https://example.com/c"},
	} {
		world = r.Reduce(world, cmd, now)
	}
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "stale"}, now)

	fresh := now.Add(r.GCGrace)
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "fresh"}, fresh)
	world = r.Reduce(world, Command{Op: OpAcquire, ViewID: "fresh"}, fresh)
	world = r.Reduce(world, Command{Op: OpRelease, ViewID: "fresh"}, fresh)

	sweepAt := now.Add(r.GCGrace + time.Second)
	got := r.Reduce(world, Command{Op: OpGC}, sweepAt)
	if _, ok := got.Get("stale"); ok {
		t.Fatal("expected stale entry collected")
	}
	if _, ok := got.Get("held"); !ok {
		t.Fatal("referenced entry must survive the sweep")
	}
	if _, ok := got.Get("fresh"); !ok {
		t.Fatal("recently touched entry must survive the sweep")
	}
}

func TestUpdateBoundsLeavesEverythingElse(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpMarkReady, ViewID: "view-a", CanGoBack: true}, now)
	before, _ := world.Get("view-a")

	later := now.Add(5 * time.Second)
	resized := Bounds{X: 0, Y: 100, Width: 800, Height: 300}
	world = r.Reduce(world, Command{Op: OpUpdateBounds, ViewID: "view-a", Bounds: resized}, later)

	entry, _ := world.Get("view-a")
	if entry.Bounds != resized {
		t.Fatalf("bounds = %+v, want %+v", entry.Bounds, resized)
	}
	if !entry.LastAccess.Equal(later) {
		t.Fatalf("last access = %v, want %v", entry.LastAccess, later)
	}
	if entry.URL != before.URL || entry.Profile != before.Profile || entry.Status != before.Status {
		t.Fatalf("entry = %+v, want url, profile, and status untouched", entry)
	}
	if entry.Layout != before.Layout {
		t.Fatalf("layout = %q, want untouched without an explicit value", entry.Layout)
	}
}

func TestUpdateBoundsCanSwitchLayout(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	world = r.Reduce(world, Command{
		Op:     OpUpdateBounds,
		ViewID: "view-a",
		Bounds: testBounds,
		Layout: LayoutFull,
	}, now.Add(time.Second))
	entry, _ := world.Get("view-a")
	if entry.Layout != LayoutFull {
		t.Fatalf("layout = %q, want full", entry.Layout)
	}
}

func TestUpdateURLKeepsStatus(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)
	world = r.Reduce(world, Command{Op: OpMarkReady, ViewID: "view-a", CanGoBack: false}, now)

	later := now.Add(2 * time.Second)
	world = r.Reduce(world, Command{Op: OpUpdateURL, ViewID: "view-a", URL: "https://example.com/next"}, later)
	entry, _ := world.Get("view-a")
	if entry.URL != "https://example.com/next" {
		t.Fatalf("url = %q, want updated", entry.URL)
	}
	if entry.Status.Phase != PhaseReady {
		t.Fatalf("phase = %q, want ready", entry.Status.Phase)
	}
	if !entry.LastAccess.Equal(later) {
		t.Fatalf("last access = %v, want %v", entry.LastAccess, later)
	}
}

func TestRepeatedMarkLoadingReturnsSameWorld(t *testing.T) {
	r := testReducer()
	now := testNow()
	world := createWorld(t, r, now)

	if got := r.Reduce(world, Command{Op: OpMarkLoading, ViewID: "view-a"}, now.Add(time.Second)); got != world {
		t.Fatal("marking a loading pane as loading produced a new world")
	}
}
