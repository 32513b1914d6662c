package battle

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const maxRoomCodeUserLen = 12

var (
	roomCodeEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	roomCodeEntropyMu sync.Mutex
)

// NewRoomCode builds a shareable code from the user id, the current time and
// randomness: "<user>-<ULID>". The server treats it as opaque.
func NewRoomCode(userID string) string {
	roomCodeEntropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), roomCodeEntropy).String()
	roomCodeEntropyMu.Unlock()

	user := roomCodeUser(userID)
	if user == "" {
		return id
	}
	return user + "-" + id
}

func roomCodeUser(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		if b.Len() >= maxRoomCodeUserLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
