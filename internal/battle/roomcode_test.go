package battle

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewRoomCode(t *testing.T) {
	a := NewRoomCode("user_42!")
	b := NewRoomCode("user_42!")
	if a == b {
		t.Fatalf("codes collide: %s", a)
	}
	if !strings.HasPrefix(a, "user42-") {
		t.Fatalf("code = %s, want user42- prefix", a)
	}
	id, err := ulid.Parse(strings.TrimPrefix(a, "user42-"))
	if err != nil {
		t.Fatalf("parse ulid: %v", err)
	}
	if d := time.Since(ulid.Time(id.Time())); d < 0 || d > time.Minute {
		t.Fatalf("code timestamp off by %v", d)
	}
}

func TestNewRoomCodeWithoutUser(t *testing.T) {
	code := NewRoomCode("  ")
	if _, err := ulid.Parse(code); err != nil {
		t.Fatalf("code %q is not a bare ulid: %v", code, err)
	}
}

func TestNewRoomCodeTruncatesUser(t *testing.T) {
	code := NewRoomCode("abcdefghijklmnopqrstuvwxyz")
	if !strings.HasPrefix(code, "abcdefghijkl-") {
		t.Fatalf("code = %s", code)
	}
}
