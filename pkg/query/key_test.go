package query

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "operation only",
			key:  NewKey("categoryCollection"),
			want: "query:categoryCollection",
		},
		{
			name: "single param",
			key:  NewKey("show", "abc-123"),
			want: "query:show:abc-123",
		},
		{
			name: "ordered params",
			key:  NewKey("categoryShows", "cat-1", "paginated"),
			want: "query:categoryShows:cat-1:paginated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	a := NewKey("reviews", "show-1")
	b := NewKey("reviews", "show-1")
	if a.String() != b.String() {
		t.Errorf("identical calls produced different keys: %q vs %q", a.String(), b.String())
	}

	c := NewKey("reviews", "show-2")
	if a.String() == c.String() {
		t.Error("different params produced the same key")
	}
}
