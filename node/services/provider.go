package services

import (
	"fmt"

	"github.com/lidofinance/rta/node/config"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/services/ledger"
	"github.com/lidofinance/rta/node/services/registry"
	"github.com/lidofinance/rta/pkg/upgrade"
	"github.com/lidofinance/rta/storage"
)

// ServiceProvider holds the modules and domain services a node is built
// from.
type ServiceProvider struct {
	genesis  *config.Genesis
	state    state.State
	storage  storage.Storage
	logger   logger.Logger
	registry *registry.OperationRegistry
	ledger   *ledger.TransferRequestLedger
}

// NewServiceProvider builds the registry and the ledger at the genesis
// addresses and registers the ledger as a registry target. journal may be
// nil when events are not published.
func NewServiceProvider(cfg *config.Config, stg state.State, journal storage.Storage, l logger.Logger) (*ServiceProvider, error) {
	genesis, err := cfg.Genesis.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse genesis: %w", err)
	}

	p := &ServiceProvider{
		genesis: genesis,
		state:   stg,
		storage: journal,
		logger:  l,
	}

	p.registry = registry.NewOperationRegistry(genesis.RegistryAddress, l, p.replaceCode)
	p.ledger = ledger.NewTransferRequestLedger(genesis.LedgerAddress, l)
	p.registry.RegisterTarget(p.ledger)

	return p, nil
}

// replaceCode is where a deployment swaps the running registry binary. The
// node itself only records the implementation.
func (p *ServiceProvider) replaceCode(impl upgrade.Implementation) error {
	p.logger.Warn().
		Str("version", impl.Version).
		Str("code_hash", impl.CodeHash.Hex()).
		Msg("registry implementation replaced, restart the node with the new build")
	return nil
}

func (p *ServiceProvider) GetGenesis() *config.Genesis {
	return p.genesis
}

func (p *ServiceProvider) GetState() state.State {
	return p.state
}

func (p *ServiceProvider) GetStorage() storage.Storage {
	return p.storage
}

func (p *ServiceProvider) GetLogger() logger.Logger {
	return p.logger
}

func (p *ServiceProvider) GetRegistry() *registry.OperationRegistry {
	return p.registry
}

func (p *ServiceProvider) GetLedger() *ledger.TransferRequestLedger {
	return p.ledger
}
