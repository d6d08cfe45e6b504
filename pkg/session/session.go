// Package session keeps the bounded, newest-first list of captured photos.
//
// Entries leaving the list, whether evicted, removed or cleared, have
// their display handle released through the Registry exactly once.
// Analysis results are correlated by photo ID and dropped when the photo
// is no longer present.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/pkg/types"
)

// DefaultCapacity is the number of photos kept on screen
const DefaultCapacity = 4

var (
	// ErrNotFound means no photo with the given ID is in the session
	ErrNotFound = errors.New("photo not in session")
	// ErrNoAnalysis means the photo has no analysis result to edit
	ErrNoAnalysis = errors.New("photo has no analysis result")
)

// Option configures a Session
type Option func(*Session)

// WithCapacity sets the maximum number of photos kept
func WithCapacity(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithRegistry sets the handle registry used to release evicted photos
func WithRegistry(r *Registry) Option {
	return func(s *Session) {
		s.handles = r
	}
}

// Session is the ordered photo list, newest first
type Session struct {
	mu       sync.Mutex
	photos   []types.Photo
	capacity int
	handles  *Registry
}

// New creates an empty session
func New(opts ...Option) *Session {
	s := &Session{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	if s.handles == nil {
		s.handles = NewRegistry()
	}
	return s
}

// Handles returns the registry backing this session
func (s *Session) Handles() *Registry {
	return s.handles
}

// Capacity returns the maximum number of photos kept
func (s *Session) Capacity() int {
	return s.capacity
}

// Insert puts photo at the front. Photos beyond capacity are evicted from
// the tail, their handles released, and returned oldest last.
func (s *Session) Insert(photo types.Photo) []types.Photo {
	s.mu.Lock()
	s.photos = append([]types.Photo{photo}, s.photos...)
	var evicted []types.Photo
	if len(s.photos) > s.capacity {
		evicted = append(evicted, s.photos[s.capacity:]...)
		s.photos = s.photos[:s.capacity:s.capacity]
	}
	s.mu.Unlock()

	for _, p := range evicted {
		s.release(p)
		log.Debug().Stringer("photo", p.ID).Msg("photo evicted")
	}
	return evicted
}

// Remove deletes the photo with id and reports whether it was present
func (s *Session) Remove(id types.PhotoID) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.photos[idx]
	s.photos = append(s.photos[:idx:idx], s.photos[idx+1:]...)
	s.mu.Unlock()

	s.release(removed)
	return true
}

// Clear empties the session and returns the number of photos removed
func (s *Session) Clear() int {
	s.mu.Lock()
	removed := s.photos
	s.photos = nil
	s.mu.Unlock()

	for _, p := range removed {
		s.release(p)
	}
	return len(removed)
}

// MarkPending flags an in-flight analysis request and returns its
// sequence number. A later MarkPending supersedes it.
func (s *Session) MarkPending(id types.PhotoID) (uint64, bool) {
	var seq uint64
	ok := s.update(id, func(p *types.Photo) {
		p.AnalysisSeq++
		seq = p.AnalysisSeq
		p.Status = types.StatusPending
		p.AnalysisErr = nil
	})
	return seq, ok
}

// SettleAnalysis records the outcome of request seq, as UpdateAnalysis or
// FailAnalysis would. It is a no-op returning false when the photo has
// left the session or a newer request has been started.
func (s *Session) SettleAnalysis(id types.PhotoID, seq uint64, result *types.AnalysisResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		log.Debug().Stringer("photo", id).Msg("analysis result discarded, photo no longer in session")
		return false
	}
	p := &s.photos[idx]
	if p.AnalysisSeq != seq {
		log.Debug().Stringer("photo", id).Uint64("seq", seq).Uint64("latest", p.AnalysisSeq).
			Msg("analysis result discarded, superseded by a newer request")
		return false
	}
	if err != nil {
		p.Status = types.StatusFailed
		p.AnalysisErr = err
		return true
	}
	p.Status = types.StatusDone
	p.Analysis = result
	p.AnalysisErr = nil
	return true
}

// UpdateAnalysis attaches result to the photo with id. It is a no-op
// returning false when the photo has left the session.
func (s *Session) UpdateAnalysis(id types.PhotoID, result *types.AnalysisResult) bool {
	ok := s.update(id, func(p *types.Photo) {
		p.Status = types.StatusDone
		p.Analysis = result
		p.AnalysisErr = nil
	})
	if !ok {
		log.Debug().Stringer("photo", id).Msg("analysis result discarded, photo no longer in session")
	}
	return ok
}

// FailAnalysis records an analysis failure. Like UpdateAnalysis it is a
// no-op when the photo is gone.
func (s *Session) FailAnalysis(id types.PhotoID, err error) bool {
	return s.update(id, func(p *types.Photo) {
		p.Status = types.StatusFailed
		p.AnalysisErr = err
	})
}

// EditTitle replaces the analysis title of a photo
func (s *Session) EditTitle(id types.PhotoID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	p := &s.photos[idx]
	if p.Analysis == nil {
		return ErrNoAnalysis
	}
	// results are shared with earlier Photos() copies, so replace rather than mutate
	edited := *p.Analysis
	edited.Title = strings.TrimSpace(title)
	p.Analysis = &edited
	return nil
}

// Get returns a copy of the photo with id
func (s *Session) Get(id types.PhotoID) (types.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return types.Photo{}, false
	}
	return s.photos[idx], true
}

// At returns the photo at position i, newest first
func (s *Session) At(i int) (types.Photo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.photos) {
		return types.Photo{}, false
	}
	return s.photos[i], true
}

// Photos returns a snapshot of the list, newest first
func (s *Session) Photos() []types.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Len returns the number of photos held
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// Titles returns the non-empty analysis titles, newest first
func (s *Session) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var titles []string
	for _, p := range s.photos {
		if p.Analysis != nil && p.Analysis.Title != "" {
			titles = append(titles, p.Analysis.Title)
		}
	}
	return titles
}

func (s *Session) update(id types.PhotoID, fn func(*types.Photo)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	fn(&s.photos[idx])
	return true
}

func (s *Session) indexOf(id types.PhotoID) int {
	for i := range s.photos {
		if s.photos[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) release(p types.Photo) {
	if p.Handle == "" {
		return
	}
	if !s.handles.Revoke(p.Handle) {
		log.Debug().Str("handle", p.Handle).Msg("handle already released")
	}
}
