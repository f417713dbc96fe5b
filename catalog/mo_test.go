package catalog

import (
	"path/filepath"
	"testing"
)

func TestMORoundTripThroughGotext(t *testing.T) {
	c := New("cy")
	c.Add(Message{ID: "Yes", String: "Ie"})
	c.Add(Message{ID: "No", String: "Na"})
	c.Add(Message{ID: "Maybe"})
	c.Add(Message{ID: "Perhaps", String: "Efallai", Flags: []string{"fuzzy"}})
	c.Add(Message{ID: "What is ‘this persons’ date of birth?", String: "Beth yw dyddiad geni ‘y person hwn’?"})

	path := filepath.Join(t.TempDir(), "cy.mo")
	if err := c.WriteMO(path); err != nil {
		t.Fatalf("WriteMO error: %v", err)
	}

	mo, err := LoadMO(path)
	if err != nil {
		t.Fatalf("LoadMO error: %v", err)
	}

	for id, want := range map[string]string{
		"Yes":                                   "Ie",
		"No":                                    "Na",
		"What is ‘this persons’ date of birth?": "Beth yw dyddiad geni ‘y person hwn’?",
	} {
		if got, ok := mo.Lookup(id); !ok || got != want {
			t.Fatalf("Lookup(%q) = %q, %v; want %q", id, got, ok, want)
		}
	}
	for _, id := range []string{"Maybe", "Perhaps", "Unknown", ""} {
		if got, ok := mo.Lookup(id); ok {
			t.Fatalf("Lookup(%q) = %q, want miss", id, got)
		}
	}
}

func TestParseMORejectsGarbage(t *testing.T) {
	if _, err := ParseMO([]byte("short")); err == nil {
		t.Fatal("expected error for short data")
	}
	if _, err := ParseMO(make([]byte, 64)); err == nil {
		t.Fatal("expected error for bad magic")
	}
	if _, err := LoadMO(filepath.Join(t.TempDir(), "missing.mo")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNilMOLookup(t *testing.T) {
	var m *MO
	if _, ok := m.Lookup("x"); ok {
		t.Fatal("nil MO must not find anything")
	}
}

func TestMOLookupKeepsIdentityTranslations(t *testing.T) {
	c := New("cy")
	c.Add(Message{ID: "%s of %d", String: "%s o %d"})
	c.Add(Message{ID: "OK", String: "OK"})

	mo, err := ParseMO(c.MO())
	if err != nil {
		t.Fatalf("ParseMO error: %v", err)
	}
	if got, ok := mo.Lookup("%s of %d"); !ok || got != "%s o %d" {
		t.Fatalf("Lookup(verbs) = %q, %v; want %q", got, ok, "%s o %d")
	}
	if got, ok := mo.Lookup("OK"); !ok || got != "OK" {
		t.Fatalf("Lookup(OK) = %q, %v; want a hit", got, ok)
	}
}
