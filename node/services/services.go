package services

import (
	"context"
	"fmt"

	"github.com/lidofinance/rta/node/config"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/storage"
	"github.com/lidofinance/rta/storage/file_storage"
	"github.com/lidofinance/rta/storage/kafka_storage"
)

// InitState opens the state backend selected in cfg.
func InitState(ctx context.Context, cfg *config.StateConfig) (state.State, error) {
	switch cfg.Backend {
	case config.StateBackendLevelDB:
		return state.NewLevelDBState(cfg.DBDSN)
	case config.StateBackendPostgres:
		return state.NewPostgresState(ctx, cfg.PostgresDSN)
	case config.StateBackendMemory:
		return state.NewMemState(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

// InitJournal opens the journal backend selected in cfg. The "none" backend
// returns a nil storage.
func InitJournal(cfg *config.JournalConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case config.JournalBackendFile:
		stg, err := file_storage.NewFileStorage(cfg.FilePath, cfg.LockPath)
		if err != nil {
			return nil, fmt.Errorf("failed to init file journal: %w", err)
		}
		return stg, nil
	case config.JournalBackendKafka:
		kafkaCfg := cfg.Kafka
		tlsConfig, err := kafka_storage.GetTLSConfig(kafkaCfg.TruststorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create tls config: %w", err)
		}
		stg, err := kafka_storage.NewKafkaStorage(
			kafkaCfg.Endpoint,
			kafkaCfg.Topic,
			kafkaCfg.ConsumerGroup,
			tlsConfig,
			kafkaCfg.ProducerCredentials.Mechanism(),
			kafkaCfg.ConsumerCredentials.Mechanism(),
			kafkaCfg.Timeout,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init kafka journal: %w", err)
		}
		return stg, nil
	case config.JournalBackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
