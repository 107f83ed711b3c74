package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/model"
)

var ErrSessionNotFound = errors.New("session not found")

const fileSuffix = ".json"

// Store manages the local cache directory of imported sessions.
// One file per session: <key>.json containing model.SessionData.
type Store struct {
	dir string
	l   *log.Logger
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.l = l }
}

func NewStore(dir string, opts ...Option) *Store {
	ret := &Store{dir: dir, l: log.Default().Named("session")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// List returns the infos of all cached sessions ordered by year and
// name. Unreadable files are skipped with a warning.
func (s *Store) List() ([]model.SessionInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.SessionInfo{}, nil
		}
		return nil, err
	}
	ret := make([]model.SessionInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), fileSuffix)
		data, err := s.Load(key)
		if err != nil {
			s.l.Warn("skipping unreadable session file",
				log.String("file", entry.Name()), log.ErrorField(err))
			continue
		}
		ret = append(ret, data.Info)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Year != ret[j].Year {
			return ret[i].Year < ret[j].Year
		}
		return ret[i].Name < ret[j].Name
	})
	return ret, nil
}

// Load reads one session by key
func (s *Store) Load(key string) (*model.SessionData, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, key+fileSuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, key)
		}
		return nil, err
	}
	ret := &model.SessionData{}
	if err := oj.Unmarshal(raw, ret); err != nil {
		return nil, fmt.Errorf("could not parse session %s: %w", key, err)
	}
	return ret, nil
}

// Save writes a session to the cache directory
func (s *Store) Save(data *model.SessionData) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := oj.Marshal(data, 2)
	if err != nil {
		return err
	}
	return os.WriteFile(
		filepath.Join(s.dir, data.Info.Key+fileSuffix), raw, 0o644)
}

// Watch invokes onChange for every session file created or rewritten in
// the cache directory until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(model.SessionInfo)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(s.dir); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, fileSuffix) {
				continue
			}
			key := strings.TrimSuffix(filepath.Base(event.Name), fileSuffix)
			data, err := s.Load(key)
			if err != nil {
				// files may be watched while still being written
				s.l.Debug("ignoring incomplete session file",
					log.String("file", event.Name), log.ErrorField(err))
				continue
			}
			onChange(data.Info)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.l.Warn("watch error", log.ErrorField(err))
		}
	}
}
