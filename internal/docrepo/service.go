// Package docrepo stores agreement text versions as git history, one
// repository per agreement with a single main branch. A version is one
// commit of agreement.txt; comparisons read two revisions back out.
package docrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const agreementFile = "agreement.txt"

// VersionInfo describes one stored agreement version.
type VersionInfo struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

// ErrAgreementNotFound is returned when no repository exists for an ID.
var ErrAgreementNotFound = errors.New("agreement not found")

// Service manages per-agreement repositories under a base directory.
// Writes to the same agreement are serialized; different agreements never
// contend.
type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// SaveVersion commits a new text version, initializing the repository on
// first use, and returns the commit info.
func (s *Service) SaveVersion(agreementID, text, author, message string) (VersionInfo, error) {
	lock := s.agreementLock(agreementID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(agreementID)
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = s.initRepo(path)
	}
	if err != nil {
		return VersionInfo{}, fmt.Errorf("open agreement repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return VersionInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	if err := os.WriteFile(filepath.Join(path, agreementFile), []byte(text), 0o644); err != nil {
		return VersionInfo{}, fmt.Errorf("write agreement text: %w", err)
	}
	if _, err := worktree.Add(agreementFile); err != nil {
		return VersionInfo{}, fmt.Errorf("git add agreement text: %w", err)
	}

	if message == "" {
		message = "Update agreement text"
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: false,
		Author:            signature(author),
	})
	if err != nil {
		return VersionInfo{}, fmt.Errorf("commit agreement version: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toVersionInfo(commitObj), nil
}

// GetVersion reads the agreement text at a revision. The revision may be
// a commit hash, an abbreviated hash, or a ref name such as HEAD.
func (s *Service) GetVersion(agreementID, revision string) (string, error) {
	lock := s.agreementLock(agreementID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(agreementID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", ErrAgreementNotFound
	}
	if err != nil {
		return "", fmt.Errorf("open agreement repo: %w", err)
	}

	resolved, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	commitObj, err := repo.CommitObject(*resolved)
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", revision, err)
	}

	file, err := commitObj.File(agreementFile)
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", agreementFile, revision, err)
	}
	return file.Contents()
}

// History lists stored versions newest first.
func (s *Service) History(agreementID string, limit int) ([]VersionInfo, error) {
	lock := s.agreementLock(agreementID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(agreementID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrAgreementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open agreement repo: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]VersionInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toVersionInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Exists reports whether an agreement repository has been created.
func (s *Service) Exists(agreementID string) bool {
	_, err := os.Stat(s.repoPath(agreementID))
	return err == nil
}

func (s *Service) initRepo(path string) (*git.Repository, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(agreementID string) string {
	return filepath.Join(s.baseDir, agreementID)
}

func (s *Service) agreementLock(agreementID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[agreementID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[agreementID] = lock
	}
	return lock
}

func toVersionInfo(commitObj *object.Commit) VersionInfo {
	return VersionInfo{
		Hash:    commitObj.Hash.String(),
		Author:  commitObj.Author.Name,
		Message: strings.TrimSpace(commitObj.Message),
		When:    commitObj.Author.When,
	}
}

func signature(author string) *object.Signature {
	if strings.TrimSpace(author) == "" {
		author = "redline"
	}
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.redline.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func sanitizeEmail(author string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(author) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('.')
		}
	}
	if b.Len() == 0 {
		return "redline"
	}
	return b.String()
}
