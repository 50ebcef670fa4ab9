package game

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type participant struct {
	id          string
	username    string
	role        Role
	rateLimiter *rate.Limiter
	socket      NetworkSession
	inbox       chan []byte
	pingChan    chan struct{}
	done        chan struct{}
	room        Room
	closeOnce   sync.Once
}

func NewParticipant(id, username string, role Role, socket NetworkSession) *participant {
	return &participant{
		id:          id,
		username:    username,
		role:        role,
		rateLimiter: rate.NewLimiter(10, 20),
		socket:      socket,
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

func (p *participant) Id() string       { return p.id }
func (p *participant) Username() string { return p.username }
func (p *participant) Role() Role       { return p.role }
func (p *participant) SetRoom(r Room)   { p.room = r }

// Send enqueues a packet for the write pump. It never blocks: a released
// member or one whose buffer is full is skipped, not waited on.
func (p *participant) Send(data []byte) error {
	select {
	case <-p.done:
		return ErrSessionReleased
	default:
	}

	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *participant) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
	return nil
}

// CancelAndRelease stops the pumps. The inbox itself is never closed, so a
// Send racing the release (the read pump answers decode failures on its own
// goroutine) can't panic; it fails with ErrSessionReleased instead.
func (p *participant) CancelAndRelease() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (p *participant) ReadPump() {
	ctx := context.Background()

	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}

		if !p.rateLimiter.Allow() {
			continue
		}

		event, err := decodeClientEvent(data)
		if err != nil {
			p.Send(makeErrorPacket(err))
			continue
		}

		p.room.Send(ctx, clientEventEnvelope{event: event, from: p})
	}

	p.room.RemoveMe(ctx, p)
}

func (p *participant) WritePump() {
loop:
	for {
		select {
		case data := <-p.inbox:
			if err := p.socket.Write(data); err != nil {
				break loop
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				break loop
			}
		case <-p.done:
			p.drainInbox()
			break loop
		}
	}
	p.socket.Close("")
}

// drainInbox flushes packets that were queued before the release.
func (p *participant) drainInbox() {
	for {
		select {
		case data := <-p.inbox:
			if p.socket.Write(data) != nil {
				return
			}
		default:
			return
		}
	}
}
