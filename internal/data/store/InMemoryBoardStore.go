package store

import (
	"context"
	"slices"
	"sync"
)

type InMemoryBoardStore struct {
	boardLock *sync.RWMutex
	boardMap  map[string][]string
}

func InitInMemoryBoardStore() *InMemoryBoardStore {
	return &InMemoryBoardStore{
		boardLock: new(sync.RWMutex),
		boardMap:  make(map[string][]string),
	}
}

func (store *InMemoryBoardStore) ValidateBoardId(ctx context.Context, id string) bool {
	store.boardLock.RLock()
	defer store.boardLock.RUnlock()
	_, ok := store.boardMap[id]
	return ok
}

func (store *InMemoryBoardStore) InitBoard(ctx context.Context, id string, words []string) error {
	store.boardLock.Lock()
	defer store.boardLock.Unlock()
	store.boardMap[id] = dedupe(words)
	inMemLogger.WithTrace(ctx).Debug("Initialized board", "boardId", id, "words", len(words))
	return nil
}

func (store *InMemoryBoardStore) GetWords(ctx context.Context, id string) ([]string, error) {
	store.boardLock.RLock()
	defer store.boardLock.RUnlock()
	words, ok := store.boardMap[id]
	if !ok {
		return nil, ErrBoardNotFound
	}
	return slices.Clone(words), nil
}

func (store *InMemoryBoardStore) AddWord(ctx context.Context, id string, word string) ([]string, error) {
	store.boardLock.Lock()
	defer store.boardLock.Unlock()
	words, ok := store.boardMap[id]
	if !ok {
		return nil, ErrBoardNotFound
	}
	if !slices.Contains(words, word) {
		words = append(words, word)
		store.boardMap[id] = words
	}
	return slices.Clone(words), nil
}

func (store *InMemoryBoardStore) DeleteWords(ctx context.Context, id string, toDelete []string) ([]string, error) {
	store.boardLock.Lock()
	defer store.boardLock.Unlock()
	words, ok := store.boardMap[id]
	if !ok {
		return nil, ErrBoardNotFound
	}
	words = slices.DeleteFunc(words, func(w string) bool {
		return slices.Contains(toDelete, w)
	})
	store.boardMap[id] = words
	return slices.Clone(words), nil
}

func dedupe(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !slices.Contains(out, w) {
			out = append(out, w)
		}
	}
	return out
}
