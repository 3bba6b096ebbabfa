package archive

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestLocal_RoundTrip(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal error: %v", err)
	}
	ctx := context.Background()

	path := TranscriptPath("u-1", "int-1")
	want := []byte("User: hi\nAssistant: hello\n")
	if err := st.Put(ctx, path, want); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := st.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("Get = %q, want %q", got, want)
	}

	// Overwrite replaces content.
	if err := st.Put(ctx, path, []byte("v2")); err != nil {
		t.Fatalf("Put overwrite error: %v", err)
	}
	got, _ = st.Get(ctx, path)
	if string(got) != "v2" {
		t.Fatalf("Get after overwrite = %q", got)
	}

	if err := st.Delete(ctx, path); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := st.Get(ctx, path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Get after delete = %v, want ErrNotExist", err)
	}

	// Deleting again is idempotent.
	if err := st.Delete(ctx, path); err != nil {
		t.Fatalf("second Delete error: %v", err)
	}
}

func TestLocal_RejectsEscapes(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal error: %v", err)
	}
	for _, p := range []string{"../outside", "/abs/path", "a/../../b"} {
		if err := st.Put(context.Background(), p, []byte("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", p)
		}
	}
}
