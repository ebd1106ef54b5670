package userstest

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/adamwoolhether/users"
)

var (
	errEmailExists = errors.New("email already registered")
	errNotFound    = errors.New("user not found")
)

type account struct {
	user users.User
	hash []byte
}

// snowflakeEpoch is the zero point of issued ids: 2015-01-01T00:00:00Z.
const snowflakeEpoch = 1420070400000

// store is an in-memory user table keyed by id.
type store struct {
	mu     sync.RWMutex
	cost   int
	byID   map[users.Snowflake]*account
	lastMS int64
	seq    int64
}

func newStore(cost int) *store {
	return &store{
		cost: cost,
		byID: make(map[users.Snowflake]*account),
	}
}

// nextID returns a snowflake of milliseconds since snowflakeEpoch shifted
// above a 22-bit sequence. Must be called with s.mu held.
func (s *store) nextID() users.Snowflake {
	ms := time.Now().UnixMilli() - snowflakeEpoch
	if ms <= s.lastMS {
		s.seq++
		if s.seq >= 1<<22 {
			s.lastMS++
			s.seq = 0
		}
		ms = s.lastMS
	} else {
		s.lastMS = ms
		s.seq = 0
	}

	for {
		id := users.Snowflake(ms<<22 | s.seq)
		if _, taken := s.byID[id]; !taken {
			return id
		}
		s.seq++
	}
}

// create inserts u with a hash of password, assigning an id when u has none.
func (s *store) create(u users.User, password string) (users.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return users.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findEmail(u.Email) != nil {
		return users.User{}, errEmailExists
	}
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	s.byID[u.ID] = &account{user: u, hash: hash}

	return u, nil
}

func (s *store) get(id users.Snowflake) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return users.User{}, errNotFound
	}
	return acct.user, nil
}

func (s *store) byEmail(email string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct := s.findEmail(email)
	if acct == nil {
		return users.User{}, errNotFound
	}
	return acct.user, nil
}

// authenticate matches login against emails first, then usernames, and
// checks password against the stored hash.
func (s *store) authenticate(login, password string) (users.User, bool) {
	s.mu.RLock()
	acct := s.findEmail(login)
	if acct == nil {
		for _, a := range s.byID {
			if a.user.Username == login {
				acct = a
				break
			}
		}
	}
	s.mu.RUnlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return users.User{}, false
	}

	return acct.user, true
}

// change describes a profile update. Nil fields are left unchanged.
type change struct {
	email    *string
	password *string
	username *string
	verified *bool
}

func (s *store) update(id users.Snowflake, c change) (users.User, error) {
	var hash []byte
	if c.password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*c.password), s.cost)
		if err != nil {
			return users.User{}, err
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return users.User{}, errNotFound
	}

	if c.email != nil && !strings.EqualFold(*c.email, acct.user.Email) {
		if s.findEmail(*c.email) != nil {
			return users.User{}, errEmailExists
		}
		acct.user.Email = *c.email
		acct.user.IsVerified = false
	}
	if c.username != nil {
		acct.user.Username = *c.username
	}
	if hash != nil {
		acct.hash = hash
	}
	if c.verified != nil {
		acct.user.IsVerified = *c.verified
	}

	return acct.user, nil
}

// findEmail must be called with s.mu held.
func (s *store) findEmail(email string) *account {
	for _, a := range s.byID {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}
