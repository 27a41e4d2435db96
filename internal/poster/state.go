package poster

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// State is what the daemon remembers about one game between cycles.
type State struct {
	GameID           string     `json:"gameId"`
	PostedPlayKeys   []string   `json:"postedPlayKeys"`
	LastTweetID      string     `json:"lastTweetId"`
	RootTweetID      string     `json:"rootTweetId"`
	FinalPosted      bool       `json:"finalPosted"`
	FinalCandidateAt *time.Time `json:"finalCandidateAt"`
	Bootstrapped     bool       `json:"bootstrapped"`

	posted map[string]bool
}

// Posted reports whether key was already handled.
func (s *State) Posted(key string) bool {
	s.index()
	return s.posted[key]
}

// MarkPosted records key as handled.
func (s *State) MarkPosted(key string) {
	s.index()
	if s.posted[key] {
		return
	}
	s.posted[key] = true
	s.PostedPlayKeys = append(s.PostedPlayKeys, key)
}

func (s *State) index() {
	if s.posted != nil {
		return
	}
	s.posted = make(map[string]bool, len(s.PostedPlayKeys))
	for _, k := range s.PostedPlayKeys {
		s.posted[k] = true
	}
}

// StateFile reads and writes per-game state files under a directory.
type StateFile struct {
	dir string
}

// NewStateFile stores state under dir.
func NewStateFile(dir string) *StateFile {
	return &StateFile{dir: dir}
}

// Path is the file holding gameID's state.
func (f *StateFile) Path(gameID string) string {
	return filepath.Join(f.dir, "game-"+gameID+".json")
}

// Load reads gameID's state. A missing file yields a fresh state.
func (f *StateFile) Load(gameID string) (*State, error) {
	data, err := os.ReadFile(f.Path(gameID))
	if errors.Is(err, os.ErrNotExist) {
		return &State{GameID: gameID, PostedPlayKeys: []string{}}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read state for %s", gameID)
	}

	var st State
	if err := sonic.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrapf(err, "decode state for %s", gameID)
	}
	if st.GameID == "" {
		st.GameID = gameID
	}
	if st.PostedPlayKeys == nil {
		st.PostedPlayKeys = []string{}
	}
	return &st, nil
}

// Save writes st wholesale.
func (f *StateFile) Save(st *State) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	data, err := sonic.ConfigStd.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode state for %s", st.GameID)
	}
	return errors.Wrapf(os.WriteFile(f.Path(st.GameID), data, 0o644), "write state for %s", st.GameID)
}
