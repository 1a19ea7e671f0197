package storage

import (
	"fmt"
	"sort"
	"sync"
)

// AdapterFactory is a function that creates a storage adapter
type AdapterFactory func(config StorageAdapterConfig) (StorageAdapter, error)

// Global registry of adapter factories
var (
	adapterFactories = make(map[string]AdapterFactory)
	factoryMutex     sync.RWMutex
)

// RegisterAdapterFactory registers a factory function for an adapter type.
// Adapter packages call it from init.
func RegisterAdapterFactory(adapterType string, factory AdapterFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	adapterFactories[adapterType] = factory
}

// RegisteredAdapterTypes lists the adapter types with a factory, sorted.
func RegisteredAdapterTypes() []string {
	factoryMutex.RLock()
	defer factoryMutex.RUnlock()

	types := make([]string, 0, len(adapterFactories))
	for adapterType := range adapterFactories {
		types = append(types, adapterType)
	}
	sort.Strings(types)
	return types
}

// CreateStorageAdapter creates a storage adapter based on config
func CreateStorageAdapter(config StorageAdapterConfig) (StorageAdapter, error) {
	factoryMutex.RLock()
	factory, exists := adapterFactories[config.AdapterType]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown adapter type: %s", config.AdapterType)
	}

	return factory(config)
}

// InitializeStorageAdapter creates the configured adapter during application
// startup. It returns nil without error when storage is disabled.
func InitializeStorageAdapter(config StorageAdapterConfig) (StorageAdapter, error) {
	if !config.EnableStorage {
		return nil, nil
	}

	adapter, err := CreateStorageAdapter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage adapter: %w", config.AdapterType, err)
	}
	return adapter, nil
}
