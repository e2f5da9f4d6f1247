// Package iocache persists result slots and run history.
package iocache

import (
	"sync"

	"github.com/huangsam/deepdive/internal/contract"
)

// StoreManagerImpl holds the result store and the history store.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	results      contract.ResultStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// NewStoreManager wraps already-open stores. Either may be nil.
func NewStoreManager(results contract.ResultStore, history contract.HistoryStore) *StoreManagerImpl {
	return &StoreManagerImpl{results: results, history: history}
}

// GetResultStore returns the result slot store.
func (mgr *StoreManagerImpl) GetResultStore() contract.ResultStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.results
}

// GetHistoryStore returns the run history store.
func (mgr *StoreManagerImpl) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
