package ticketstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store persists tickets, projects, and subscription state. With a
// postgres DSN it runs against the database; otherwise it keeps
// everything in memory, which is enough for local runs and tests.
type Store struct {
	db *sql.DB

	mu            sync.RWMutex
	tickets       map[string]Ticket
	projects      map[string]Project
	subscriptions map[string]Subscription

	schemaOnce sync.Once
	schemaErr  error

	// monthly saved-ticket counts, keyed user|YYYY-MM
	countCache *lru.Cache[string, int]
}

func New() *Store {
	s := &Store{
		tickets:       make(map[string]Ticket),
		projects:      make(map[string]Project),
		subscriptions: make(map[string]Subscription),
	}
	s.countCache, _ = lru.New[string, int](1024)
	return s
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, int](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, countCache: cache}, nil
}

// NewFromEnv picks postgres when TICKET_STORE_PG_DSN is set, falling
// back to the in-memory store.
func NewFromEnv() *Store {
	dsn := strings.TrimSpace(os.Getenv("TICKET_STORE_PG_DSN"))
	if dsn == "" {
		return New()
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New()
	}
	return s
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) usesDB() bool { return s != nil && s.db != nil }

func (s *Store) invalidateCount(userID string) {
	if s.countCache == nil {
		return
	}
	for _, k := range s.countCache.Keys() {
		if strings.HasPrefix(k, userID+"|") {
			s.countCache.Remove(k)
		}
	}
}
