package numa

import "testing"

func TestNullHinterAlwaysDeclines(t *testing.T) {
	var h NullHinter

	if _, ok := h.Hint(); ok {
		t.Fatalf("NullHinter.Hint() should never report ok=true")
	}
}
