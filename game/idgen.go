package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Room codes must be short enough to type from another screen. Uppercase only;
// lookups normalize case before hitting the registry.
const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() Idgen {
	return Idgen{ids: make(map[string]struct{})}
}

func (idgen *Idgen) Generate() string {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()

	for {
		code := randomRoomCode()
		if _, taken := idgen.ids[code]; taken {
			continue
		}
		idgen.ids[code] = struct{}{}
		return code
	}
}

func (idgen *Idgen) Dispose(id string) {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()
	delete(idgen.ids, strings.ToUpper(id))
}

func randomRoomCode() string {
	var b strings.Builder
	b.Grow(roomCodeLength)
	for range roomCodeLength {
		b.WriteByte(roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))])
	}
	return b.String()
}
