// Package upgrade holds the one-shot capability that guards code replacement
// and the record of the implementation currently in place.
package upgrade

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

// Implementation describes the code a component runs.
type Implementation struct {
	Version    string      `json:"version"`
	CodeHash   common.Hash `json:"code_hash"`
	UpgradedAt time.Time   `json:"upgraded_at"`
}

// CodeReplacer swaps the running code for impl.
type CodeReplacer func(impl Implementation) error

// Authorization is granted right before code replacement and consumed by it.
// It is never persisted.
type Authorization struct {
	mu      sync.Mutex
	granted bool
}

func (a *Authorization) Grant() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.granted = true
}

// Consume takes the grant. Without one it returns ErrUpgradeNotAuthorized.
func (a *Authorization) Consume() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.granted {
		return rtaerrors.ErrUpgradeNotAuthorized.New("code replacement outside of an executed operation")
	}
	a.granted = false
	return nil
}

// Clear drops an unused grant.
func (a *Authorization) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.granted = false
}

func (a *Authorization) Granted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.granted
}
