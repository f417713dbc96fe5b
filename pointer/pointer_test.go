package pointer

import (
	"errors"
	"reflect"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		segs []Segment
		want string
	}{
		{"root", nil, ""},
		{"keys and indices", []Segment{Key("questions"), Index(0), Key("answers"), Index(0), Key("options"), Index(1), Key("label")}, "/questions/0/answers/0/options/1/label"},
		{"escaped key", []Segment{Key("a/b"), Key("c~d")}, "/a~1b/c~0d"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.segs...); got != tc.want {
				t.Fatalf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, addr := range []string{
		"",
		"/titles/0/value",
		"/content/1/list/2",
		"/questions/0/answers/0/guidance/hide_guidance",
		"/a~1b/c~0d",
	} {
		segs, err := Parse(addr)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", addr, err)
		}
		if got := Render(segs...); got != addr {
			t.Fatalf("Render(Parse(%q)) = %q", addr, got)
		}
	}
}

func TestParseSegments(t *testing.T) {
	segs, err := Parse("/content/10/list/007")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []Segment{Key("content"), Index(10), Key("list"), Key("007")}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("Parse() = %#v, want %#v", segs, want)
	}
	if !segs[1].IsIndex() || segs[1].Index() != 10 {
		t.Fatalf("segment 1 = %v, want index 10", segs[1])
	}
	if segs[0].Index() != -1 {
		t.Fatalf("key segment Index() = %d, want -1", segs[0].Index())
	}
	if segs[1].Key() != "10" {
		t.Fatalf("index segment Key() = %q, want 10", segs[1].Key())
	}
}

func TestParseMalformed(t *testing.T) {
	for _, addr := range []string{"questions/0", "/", "/questions//0", "/questions/0/"} {
		if _, err := Parse(addr); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) error = %v, want ErrMalformed", addr, err)
		}
	}
}

func TestParentPrefixes(t *testing.T) {
	got, err := ParentPrefixes("/questions/0/answers/0/label")
	if err != nil {
		t.Fatalf("ParentPrefixes error: %v", err)
	}
	want := []string{
		"/questions/0/answers/0",
		"/questions/0/answers",
		"/questions/0",
		"/questions",
		"",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParentPrefixes() = %#v, want %#v", got, want)
	}

	root, err := ParentPrefixes("")
	if err != nil || len(root) != 0 {
		t.Fatalf("ParentPrefixes(root) = %v, %v; want empty", root, err)
	}

	if _, err := ParentPrefixes("bad"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("ParentPrefixes(bad) error = %v, want ErrMalformed", err)
	}
}

func TestAppend(t *testing.T) {
	if got := Append("/content/1", Key("list"), Index(0)); got != "/content/1/list/0" {
		t.Fatalf("Append() = %q", got)
	}
	if got := Append("", Key("titles")); got != "/titles" {
		t.Fatalf("Append(root) = %q", got)
	}
}
