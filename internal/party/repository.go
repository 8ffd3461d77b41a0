package party

import (
	"hash/maphash"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/speedgame/internal/speedgame"
)

// DefaultShards is the number of independently locked buckets in a
// Repository.
const DefaultShards = 32

type shard struct {
	mu      sync.RWMutex
	parties map[uuid.UUID]*Party
}

type RepositoryOption func(*Repository)

func WithShards(n int) RepositoryOption {
	return func(r *Repository) {
		if n > 0 {
			r.shards = make([]shard, n)
		}
	}
}

// WithPartyOptions applies opts to every party the repository creates.
func WithPartyOptions(opts ...Option) RepositoryOption {
	return func(r *Repository) { r.partyOpts = append(r.partyOpts, opts...) }
}

// Repository is the registry of live parties keyed by id. Parties are
// spread over shards so that inserts and removals only lock one bucket.
type Repository struct {
	pub       Notifier
	seed      maphash.Seed
	shards    []shard
	partyOpts []Option
}

func NewRepository(pub Notifier, opts ...RepositoryOption) *Repository {
	r := &Repository{
		pub:    pub,
		seed:   maphash.MakeSeed(),
		shards: make([]shard, DefaultShards),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i].parties = make(map[uuid.UUID]*Party)
	}
	return r
}

func (r *Repository) shardFor(id uuid.UUID) *shard {
	h := maphash.Bytes(r.seed, id[:])
	return &r.shards[h%uint64(len(r.shards))]
}

func (r *Repository) options() []Option {
	return append([]Option{WithNotifier(r.pub)}, r.partyOpts...)
}

// Add creates and registers an empty party.
func (r *Repository) Add(id uuid.UUID, name string) (*Party, error) {
	return r.insert(New(id, name, r.options()...))
}

// Load registers a party rebuilt from a stored record.
func (r *Repository) Load(rec speedgame.PartyRecord) (*Party, error) {
	return r.insert(FromRecord(rec, r.options()...))
}

func (r *Repository) insert(p *Party) (*Party, error) {
	s := r.shardFor(p.ID())
	s.mu.Lock()
	if _, ok := s.parties[p.ID()]; ok {
		s.mu.Unlock()
		return nil, ErrDuplicateKey
	}
	s.parties[p.ID()] = p
	s.mu.Unlock()

	if r.pub != nil {
		r.pub.Publish(Event{Kind: EventChanged, PartyID: p.ID(), Party: p})
	}
	return p, nil
}

func (r *Repository) Get(id uuid.UUID) (*Party, bool) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[id]
	return p, ok
}

func (r *Repository) Exists(id uuid.UUID) bool {
	_, ok := r.Get(id)
	return ok
}

// Remove drops a party and stops its countdown. Unknown ids are ignored.
func (r *Repository) Remove(id uuid.UUID) {
	s := r.shardFor(id)
	s.mu.Lock()
	p, ok := s.parties[id]
	delete(s.parties, id)
	s.mu.Unlock()

	if ok {
		p.Close()
	}
}

func (r *Repository) RemoveAll() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		removed := s.parties
		s.parties = make(map[uuid.UUID]*Party)
		s.mu.Unlock()

		for _, p := range removed {
			p.Close()
		}
	}
}

// All returns the live parties in no particular order.
func (r *Repository) All() []*Party {
	var out []*Party
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, p := range s.parties {
			out = append(out, p)
		}
		s.mu.RUnlock()
	}
	return out
}

// FindByTeam returns the party that owns the team.
func (r *Repository) FindByTeam(teamID uuid.UUID) (*Party, bool) {
	for _, p := range r.All() {
		if p.HasTeam(teamID) {
			return p, true
		}
	}
	return nil, false
}

func (r *Repository) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.parties)
		s.mu.RUnlock()
	}
	return n
}
