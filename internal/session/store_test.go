package session_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/snaptrace/internal/imagebuf"
	"github.com/fakeyudi/snaptrace/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	st, err := session.NewStore(t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func testImage() *imagebuf.Buffer {
	return imagebuf.New(4, 4)
}

func TestCreateLoadRoundTrip(t *testing.T) {
	st := newStore(t)

	created, err := st.Create("X")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := st.Load(created.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "X" {
		t.Errorf("Name = %q, want %q", loaded.Name, "X")
	}
	if len(loaded.Evidence) != 0 {
		t.Errorf("new session has %d evidence records, want 0", len(loaded.Evidence))
	}
	if !loaded.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt did not round-trip: %v vs %v", loaded.CreatedAt, created.CreatedAt)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	st := newStore(t)
	for _, name := range []string{"", "   ", "\t"} {
		if _, err := st.Create(name); !errors.Is(err, session.ErrEmptyName) {
			t.Errorf("Create(%q) err = %v, want ErrEmptyName", name, err)
		}
	}
}

func TestLoadMissingSession(t *testing.T) {
	st := newStore(t)
	if _, err := st.Load("no-such-id"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Load err = %v, want ErrNotFound", err)
	}
}

func TestLoadCorruptMetadata(t *testing.T) {
	st := newStore(t)
	s, err := st.Create("to corrupt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	path := filepath.Join(st.Root(), s.ID, "metadata.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupting metadata: %v", err)
	}

	_, err = st.Load(s.ID)
	var corrupt *session.CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Load err = %v, want CorruptError", err)
	}
}

func TestAddEvidenceAppendsLast(t *testing.T) {
	st := newStore(t)
	s, err := st.Create("captures")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := st.AddEvidence(s.ID, testImage(), "first"); err != nil {
		t.Fatalf("AddEvidence: %v", err)
	}
	ev, err := st.AddEvidence(s.ID, testImage(), "second")
	if err != nil {
		t.Fatalf("AddEvidence: %v", err)
	}

	loaded, err := st.Load(s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Evidence) != 2 {
		t.Fatalf("evidence count = %d, want 2", len(loaded.Evidence))
	}
	last := loaded.Evidence[len(loaded.Evidence)-1]
	if last.ID != ev.ID || last.Note != "second" {
		t.Errorf("last evidence = %+v, want id %s note %q", last, ev.ID, "second")
	}

	// The locator must resolve to an existing, readable image file.
	path, err := st.ImagePath(s.ID, ev.ID)
	if err != nil {
		t.Fatalf("ImagePath: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("image file missing: %v", err)
	}
	data, err := st.ReadImage(s.ID, ev.ID)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if _, err := imagebuf.DecodePNG(strings.NewReader(string(data))); err != nil {
		t.Errorf("stored image is not decodable PNG: %v", err)
	}
}

func TestAddEvidenceMissingSession(t *testing.T) {
	st := newStore(t)
	if _, err := st.AddEvidence("ghost", testImage(), ""); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("AddEvidence err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEvidenceIsIdempotent(t *testing.T) {
	st := newStore(t)
	s, _ := st.Create("s")
	ev1, _ := st.AddEvidence(s.ID, testImage(), "A")
	ev2, _ := st.AddEvidence(s.ID, testImage(), "B")

	ok, err := st.DeleteEvidence(s.ID, ev1.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteEvidence = (%v, %v), want (true, nil)", ok, err)
	}

	loaded, _ := st.Load(s.ID)
	if len(loaded.Evidence) != 1 || loaded.Evidence[0].ID != ev2.ID {
		t.Fatalf("after delete, evidence = %+v, want only %s", loaded.Evidence, ev2.ID)
	}

	// Second delete of the same id: no error, no change.
	ok, err = st.DeleteEvidence(s.ID, ev1.ID)
	if err != nil {
		t.Fatalf("repeat DeleteEvidence: %v", err)
	}
	if ok {
		t.Error("repeat DeleteEvidence returned true, want false")
	}
	loaded, _ = st.Load(s.ID)
	if len(loaded.Evidence) != 1 {
		t.Errorf("repeat delete changed evidence count to %d", len(loaded.Evidence))
	}
}

func TestDeleteEvidenceToleratesMissingImage(t *testing.T) {
	st := newStore(t)
	s, _ := st.Create("s")
	ev, _ := st.AddEvidence(s.ID, testImage(), "")

	path, _ := st.ImagePath(s.ID, ev.ID)
	if err := os.Remove(path); err != nil {
		t.Fatalf("removing image out from under the store: %v", err)
	}

	ok, err := st.DeleteEvidence(s.ID, ev.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteEvidence with missing image = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestDeleteSession(t *testing.T) {
	st := newStore(t)
	s, _ := st.Create("doomed")
	st.AddEvidence(s.ID, testImage(), "")

	ok, err := st.Delete(s.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}
	if _, err := st.Load(s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Load after Delete err = %v, want ErrNotFound", err)
	}

	ok, err = st.Delete(s.ID)
	if err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}
	if ok {
		t.Error("repeat Delete returned true, want false")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	st := newStore(t)

	a, _ := st.Create("a")
	b, _ := st.Create("b")
	c, _ := st.Create("c")

	// Force distinct, known creation times by rewriting metadata directly.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setCreatedAt(t, st, a.ID, base.Add(1*time.Hour))
	setCreatedAt(t, st, b.ID, base.Add(2*time.Hour))
	setCreatedAt(t, st, c.ID, base.Add(3*time.Hour))

	sessions, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ids(sessions); len(got) != 3 || got[0] != c.ID || got[1] != b.ID || got[2] != a.ID {
		t.Fatalf("List order = %v, want [%s %s %s]", got, c.ID, b.ID, a.ID)
	}

	// A session older than everything sorts last.
	old, _ := st.Create("ancient")
	setCreatedAt(t, st, old.ID, base.Add(-24*time.Hour))
	sessions, _ = st.List()
	if got := ids(sessions); got[len(got)-1] != old.ID {
		t.Fatalf("oldest session not last: %v", got)
	}
}

func TestListSkipsCorruptSessions(t *testing.T) {
	st := newStore(t)
	good, _ := st.Create("good")
	bad, _ := st.Create("bad")

	path := filepath.Join(st.Root(), bad.ID, "metadata.json")
	if err := os.WriteFile(path, []byte("???"), 0o644); err != nil {
		t.Fatalf("corrupting metadata: %v", err)
	}

	sessions, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != good.ID {
		t.Fatalf("List = %v, want only %s", ids(sessions), good.ID)
	}
}

func TestRenameAndSetNote(t *testing.T) {
	st := newStore(t)
	s, _ := st.Create("before")
	ev, _ := st.AddEvidence(s.ID, testImage(), "old note")

	if _, err := st.Rename(s.ID, "  "); !errors.Is(err, session.ErrEmptyName) {
		t.Errorf("Rename to blank err = %v, want ErrEmptyName", err)
	}
	renamed, err := st.Rename(s.ID, "after")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Name != "after" {
		t.Errorf("renamed snapshot Name = %q", renamed.Name)
	}

	updated, err := st.SetNote(s.ID, ev.ID, "new note")
	if err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if updated.Note != "new note" {
		t.Errorf("SetNote snapshot Note = %q", updated.Note)
	}

	loaded, _ := st.Load(s.ID)
	if loaded.Name != "after" || loaded.Evidence[0].Note != "new note" {
		t.Errorf("mutations not durable: %+v", loaded)
	}

	if _, err := st.SetNote(s.ID, "ghost", "x"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("SetNote on missing evidence err = %v, want ErrNotFound", err)
	}
}

// Snapshots returned by the store are independent copies: mutating them must
// not affect later reads.
func TestSnapshotsDoNotAlias(t *testing.T) {
	st := newStore(t)
	s, _ := st.Create("snapshot")
	st.AddEvidence(s.ID, testImage(), "note")

	loaded, _ := st.Load(s.ID)
	loaded.Name = "mutated in memory"
	loaded.Evidence[0].Note = "mutated too"

	again, _ := st.Load(s.ID)
	if again.Name != "snapshot" || again.Evidence[0].Note != "note" {
		t.Fatalf("in-memory mutation leaked into storage: %+v", again)
	}
}

// Scenario from the storage design: create "Checkout Flow", add evidences
// "A" and "B", delete "A"; exactly one entry with note "B" remains, in the
// file as well as in memory.
func TestCheckoutFlowScenario(t *testing.T) {
	st := newStore(t)
	s, err := st.Create("Checkout Flow")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	evA, _ := st.AddEvidence(s.ID, testImage(), "A")
	st.AddEvidence(s.ID, testImage(), "B")

	ok, err := st.DeleteEvidence(s.ID, evA.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteEvidence = (%v, %v)", ok, err)
	}

	loaded, _ := st.Load(s.ID)
	if len(loaded.Evidence) != 1 || loaded.Evidence[0].Note != "B" {
		t.Fatalf("session after scenario = %+v", loaded.Evidence)
	}

	// Parse the metadata file directly: it must list exactly one entry.
	raw, err := os.ReadFile(filepath.Join(st.Root(), s.ID, "metadata.json"))
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var onDisk struct {
		SessionName string `json:"sessionName"`
		Evidence    []struct {
			Note string `json:"note"`
		} `json:"evidenceList"`
	}
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("parsing metadata: %v", err)
	}
	if onDisk.SessionName != "Checkout Flow" || len(onDisk.Evidence) != 1 || onDisk.Evidence[0].Note != "B" {
		t.Fatalf("on-disk metadata = %+v", onDisk)
	}
}

// Property: any sequence of added notes round-trips in capture order.
func TestEvidenceOrderRoundTrip(t *testing.T) {
	st := newStore(t)

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-zA-Z0-9 ]{1,30}`).Draw(t, "name")
		s, err := st.Create(name)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		notes := rapid.SliceOfN(rapid.StringN(0, 40, -1), 0, 6).Draw(t, "notes")
		for _, note := range notes {
			if _, err := st.AddEvidence(s.ID, testImage(), note); err != nil {
				t.Fatalf("AddEvidence: %v", err)
			}
		}

		loaded, err := st.Load(s.ID)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if loaded.Name != name {
			t.Errorf("Name = %q, want %q", loaded.Name, name)
		}
		if len(loaded.Evidence) != len(notes) {
			t.Fatalf("evidence count = %d, want %d", len(loaded.Evidence), len(notes))
		}
		for i, note := range notes {
			if loaded.Evidence[i].Note != note {
				t.Errorf("Evidence[%d].Note = %q, want %q", i, loaded.Evidence[i].Note, note)
			}
		}
	})
}

// setCreatedAt rewrites a session's metadata with a fixed creation time.
func setCreatedAt(t *testing.T, st *session.Store, id string, at time.Time) {
	t.Helper()
	path := filepath.Join(st.Root(), id, "metadata.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("parsing metadata: %v", err)
	}
	s.CreatedAt = session.Timestamp(at.UTC())
	out, err := json.MarshalIndent(&s, "", "  ")
	if err != nil {
		t.Fatalf("marshaling metadata: %v", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("writing metadata: %v", err)
	}
}

func ids(sessions []*session.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}
