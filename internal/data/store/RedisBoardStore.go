package store

import (
	"context"
	"errors"
	"slices"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/data/redisStore"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var ErrBoardNotFound = errors.New("board not found")

// RedisBoardStore keeps each board as a redis list plus a marker key,
// so a board whose words were all deleted still exists.
type RedisBoardStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisBoardStore(store *redisStore.Store) *RedisBoardStore {
	return &RedisBoardStore{
		store:  store,
		logger: logger_i.NewLogger("BoardStore"),
	}
}

func (s *RedisBoardStore) ValidateBoardId(ctx context.Context, id string) bool {
	log := s.logger.WithTrace(ctx).With("boardId", id)
	isFound, err := s.store.Exists(ctx, markerKey(id))
	if err != nil {
		log.Error("Failed to check if board exists", "error", err)
		return false
	}
	return isFound
}

func (s *RedisBoardStore) InitBoard(ctx context.Context, id string, words []string) error {
	log := s.logger.WithTrace(ctx).With("boardId", id)
	log.Debug("Initializing new board")
	if err := s.store.Set(ctx, markerKey(id), "1", config.RedisBoardStoreTTL); err != nil {
		log.Error("Error initializing board", "error", err)
		return err
	}
	return s.store.ReplaceList(ctx, wordsKey(id), dedupe(words), config.RedisBoardStoreTTL)
}

func (s *RedisBoardStore) GetWords(ctx context.Context, id string) ([]string, error) {
	if !s.ValidateBoardId(ctx, id) {
		return nil, ErrBoardNotFound
	}
	words, err := s.store.ListGetAll(ctx, wordsKey(id))
	if err != nil {
		s.logger.WithTrace(ctx).Error("Error reading board words", "boardId", id, "error", err)
		return nil, err
	}
	s.touch(ctx, id)
	return words, nil
}

func (s *RedisBoardStore) AddWord(ctx context.Context, id string, word string) ([]string, error) {
	if !s.ValidateBoardId(ctx, id) {
		return nil, ErrBoardNotFound
	}
	if _, err := s.store.ListPushUnique(ctx, wordsKey(id), word); err != nil {
		s.logger.WithTrace(ctx).Error("Error adding word", "boardId", id, "error", err)
		return nil, err
	}
	return s.GetWords(ctx, id)
}

func (s *RedisBoardStore) DeleteWords(ctx context.Context, id string, words []string) ([]string, error) {
	if !s.ValidateBoardId(ctx, id) {
		return nil, ErrBoardNotFound
	}
	for _, w := range slices.Compact(slices.Sorted(slices.Values(words))) {
		if err := s.store.ListRemove(ctx, wordsKey(id), w); err != nil {
			s.logger.WithTrace(ctx).Error("Error deleting word", "boardId", id, "word", w, "error", err)
			return nil, err
		}
	}
	return s.GetWords(ctx, id)
}

func (s *RedisBoardStore) touch(ctx context.Context, id string) {
	_ = s.store.Expire(ctx, markerKey(id), config.RedisBoardStoreTTL)
	_ = s.store.Expire(ctx, wordsKey(id), config.RedisBoardStoreTTL)
}

func markerKey(id string) string {
	return "board:" + id
}

func wordsKey(id string) string {
	return "board:" + id + ":words"
}
