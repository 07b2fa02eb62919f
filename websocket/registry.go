package websocket

import (
	"hash/fnv"
	"sync"

	"github.com/anjiri1684/tutor_live/models"
)

const DefaultShards = 32

// room holds the connections joined to one conversation. seq serializes
// append+fan-out and join snapshots so every member sees store order.
// Lock order: room.seq, shard.mu, room.mu, Client.mu.
type room struct {
	key models.RoomKey
	id  string

	seq sync.Mutex

	mu      sync.RWMutex
	members map[*Client]struct{}
}

func (rm *room) snapshot() []*Client {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]*Client, 0, len(rm.members))
	for c := range rm.members {
		out = append(out, c)
	}
	return out
}

type shard struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// Registry maps room keys to their joined connections. Rooms are spread over
// independently locked shards and dropped once their last member leaves.
type Registry struct {
	shards []*shard
}

func NewRegistry(shards int) *Registry {
	if shards <= 0 {
		shards = DefaultShards
	}
	r := &Registry{shards: make([]*shard, shards)}
	for i := range r.shards {
		r.shards[i] = &shard{rooms: make(map[string]*room)}
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// attach adds c to the room for key, creating it if needed.
func (r *Registry) attach(key models.RoomKey, c *Client) *room {
	id := key.String()
	sh := r.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rm, ok := sh.rooms[id]
	if !ok {
		rm = &room{key: key, id: id, members: make(map[*Client]struct{})}
		sh.rooms[id] = rm
	}
	rm.mu.Lock()
	rm.members[c] = struct{}{}
	rm.mu.Unlock()
	return rm
}

func (r *Registry) detach(rm *room, c *Client) {
	sh := r.shardFor(rm.id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rm.mu.Lock()
	delete(rm.members, c)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty && sh.rooms[rm.id] == rm {
		delete(sh.rooms, rm.id)
	}
}

func (r *Registry) lookup(id string) *room {
	sh := r.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.rooms[id]
}

// size returns the number of connections joined to the room.
func (r *Registry) size(key models.RoomKey) int {
	rm := r.lookup(key.String())
	if rm == nil {
		return 0
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.members)
}

// Rooms returns how many rooms currently have members.
func (r *Registry) Rooms() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.Lock()
		n += len(sh.rooms)
		sh.mu.Unlock()
	}
	return n
}
