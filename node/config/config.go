package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/types"
	"github.com/lidofinance/rta/pkg/utils"
	"github.com/lidofinance/rta/storage/kafka_storage"
)

const EnvPrefix = "RTA"

const (
	StateBackendLevelDB  = "leveldb"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"

	JournalBackendFile  = "file"
	JournalBackendKafka = "kafka"
	JournalBackendNone  = "none"
)

type HttpApiConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Debug      bool   `mapstructure:"debug"`
}

type StateConfig struct {
	Backend     string `mapstructure:"backend"`
	DBDSN       string `mapstructure:"dbdsn"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type KafkaStorageConfig struct {
	Endpoint            string                             `mapstructure:"endpoint"`
	Topic               string                             `mapstructure:"topic"`
	ConsumerGroup       string                             `mapstructure:"consumer_group"`
	TruststorePath      string                             `mapstructure:"truststore_path"`
	ProducerCredentials kafka_storage.KafkaAuthCredentials `mapstructure:"producer_credentials"`
	ConsumerCredentials kafka_storage.KafkaAuthCredentials `mapstructure:"consumer_credentials"`
	Timeout             time.Duration                      `mapstructure:"timeout"`
}

type JournalConfig struct {
	Backend  string              `mapstructure:"backend"`
	FilePath string              `mapstructure:"file_path"`
	LockPath string              `mapstructure:"lock_path"`
	Kafka    *KafkaStorageConfig `mapstructure:"kafka"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GenesisConfig is the raw genesis as read from file, env or flags.
type GenesisConfig struct {
	RegistryAddress    string   `mapstructure:"registry_address"`
	LedgerAddress      string   `mapstructure:"ledger_address"`
	TransferAgent      string   `mapstructure:"transfer_agent"`
	Signers            []string `mapstructure:"signers"`
	RequiredSignatures uint64   `mapstructure:"required_signatures"`
	FeeType            string   `mapstructure:"fee_type"`
	FeeValue           string   `mapstructure:"fee_value"`
	AcceptedFeeTokens  []string `mapstructure:"accepted_fee_tokens"`
}

// Genesis is GenesisConfig with every field parsed.
type Genesis struct {
	RegistryAddress common.Address
	LedgerAddress   common.Address
	TransferAgent   common.Address
	Registry        requests.GenesisRequest
	FeeParameters   *types.FeeParameters
}

type Config struct {
	Username string `mapstructure:"username"`

	HttpApiConfig *HttpApiConfig `mapstructure:"http_api_config"`
	State         *StateConfig   `mapstructure:"state"`
	Journal       *JournalConfig `mapstructure:"journal"`
	Log           *LogConfig     `mapstructure:"log"`
	Genesis       *GenesisConfig `mapstructure:"genesis"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("username", "rta_node")

	v.SetDefault("http_api_config.listen_addr", "localhost:8080")
	v.SetDefault("http_api_config.debug", false)

	v.SetDefault("state.backend", StateBackendLevelDB)
	v.SetDefault("state.dbdsn", "./rta_state")
	v.SetDefault("state.postgres_dsn", "")

	v.SetDefault("journal.backend", JournalBackendFile)
	v.SetDefault("journal.file_path", "./rta_journal")
	v.SetDefault("journal.lock_path", "/tmp/rta_journal_lock")
	v.SetDefault("journal.kafka.endpoint", "localhost:9093")
	v.SetDefault("journal.kafka.topic", "rta_events")
	v.SetDefault("journal.kafka.consumer_group", "rta_node")
	v.SetDefault("journal.kafka.truststore_path", "")
	v.SetDefault("journal.kafka.producer_credentials.username", "")
	v.SetDefault("journal.kafka.producer_credentials.password", "")
	v.SetDefault("journal.kafka.consumer_credentials.username", "")
	v.SetDefault("journal.kafka.consumer_credentials.password", "")
	v.SetDefault("journal.kafka.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("genesis.registry_address", "0x0000000000000000000000000000000000000001")
	v.SetDefault("genesis.ledger_address", "0x0000000000000000000000000000000000000002")
	v.SetDefault("genesis.transfer_agent", "")
	v.SetDefault("genesis.signers", []string{})
	v.SetDefault("genesis.required_signatures", 1)
	v.SetDefault("genesis.fee_type", string(types.FeeTypeFlat))
	v.SetDefault("genesis.fee_value", "0")
	v.SetDefault("genesis.accepted_fee_tokens", []string{})
}

// Keys holding a single address. YAML reads an unquoted 0x value as an
// integer, which would silently become its decimal form.
var addressKeys = []string{
	"genesis.registry_address",
	"genesis.ledger_address",
	"genesis.transfer_agent",
}

// quotedStringsHookFunc refuses non-string entries of string lists. The only
// string lists of the config are address lists.
func quotedStringsHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf([]string(nil)) {
			return data, nil
		}
		list, ok := data.([]interface{})
		if !ok {
			return data, nil
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return nil, fmt.Errorf("addresses must be quoted hex strings, got %v (%T)", item, item)
			}
		}
		return data, nil
	}
}

// Load reads the configuration from v: the config file if one is set, RTA_
// prefixed environment variables and any flags bound to v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, key := range addressKeys {
		if value := v.Get(key); value != nil {
			if _, ok := value.(string); !ok {
				return nil, fmt.Errorf("%s must be a quoted hex string, got %v (%T)", key, value, value)
			}
		}
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		quotedStringsHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if c.HttpApiConfig == nil || c.HttpApiConfig.ListenAddr == "" {
		return fmt.Errorf("http_api_config.listen_addr cannot be empty")
	}

	if c.State == nil {
		return fmt.Errorf("state config is missing")
	}
	switch c.State.Backend {
	case StateBackendLevelDB:
		if c.State.DBDSN == "" {
			return fmt.Errorf("state.dbdsn cannot be empty for %s backend", c.State.Backend)
		}
	case StateBackendPostgres:
		if c.State.PostgresDSN == "" {
			return fmt.Errorf("state.postgres_dsn cannot be empty for %s backend", c.State.Backend)
		}
	case StateBackendMemory:
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}

	if c.Journal == nil {
		return fmt.Errorf("journal config is missing")
	}
	switch c.Journal.Backend {
	case JournalBackendFile:
		if c.Journal.FilePath == "" {
			return fmt.Errorf("journal.file_path cannot be empty for %s backend", c.Journal.Backend)
		}
	case JournalBackendKafka:
		if c.Journal.Kafka == nil || c.Journal.Kafka.Endpoint == "" || c.Journal.Kafka.Topic == "" {
			return fmt.Errorf("journal.kafka endpoint and topic are required for %s backend", c.Journal.Backend)
		}
	case JournalBackendNone:
	default:
		return fmt.Errorf("unknown journal backend %q", c.Journal.Backend)
	}

	if c.Genesis == nil {
		return fmt.Errorf("genesis config is missing")
	}
	if _, err := c.Genesis.Parse(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	return nil
}

// Parse converts the raw genesis. The transfer agent defaults to the
// registry, so ledger privileges are reachable only through executed
// operations.
func (g *GenesisConfig) Parse() (*Genesis, error) {
	registryAddress, err := utils.ParseAddress(g.RegistryAddress)
	if err != nil {
		return nil, fmt.Errorf("registry_address: %w", err)
	}
	ledgerAddress, err := utils.ParseAddress(g.LedgerAddress)
	if err != nil {
		return nil, fmt.Errorf("ledger_address: %w", err)
	}
	if registryAddress == ledgerAddress {
		return nil, fmt.Errorf("registry and ledger cannot share address %s", registryAddress.Hex())
	}

	agent := registryAddress
	if strings.TrimSpace(g.TransferAgent) != "" {
		if agent, err = utils.ParseAddress(g.TransferAgent); err != nil {
			return nil, fmt.Errorf("transfer_agent: %w", err)
		}
	}

	signers, err := utils.ParseAddresses(g.Signers)
	if err != nil {
		return nil, fmt.Errorf("signers: %w", err)
	}
	registry := requests.GenesisRequest{
		Signers:            signers,
		RequiredSignatures: g.RequiredSignatures,
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}

	feeValue, err := utils.ParseAmount(g.FeeValue)
	if err != nil {
		return nil, fmt.Errorf("fee_value: %w", err)
	}
	feeTokens, err := utils.ParseAddresses(g.AcceptedFeeTokens)
	if err != nil {
		return nil, fmt.Errorf("accepted_fee_tokens: %w", err)
	}
	fees := requests.FeeParametersRequest{
		Type:           g.FeeType,
		Value:          feeValue,
		AcceptedTokens: feeTokens,
	}
	if err := fees.Validate(); err != nil {
		return nil, err
	}

	return &Genesis{
		RegistryAddress: registryAddress,
		LedgerAddress:   ledgerAddress,
		TransferAgent:   agent,
		Registry:        registry,
		FeeParameters: &types.FeeParameters{
			Type:           types.FeeType(g.FeeType),
			Value:          feeValue,
			AcceptedTokens: feeTokens,
		},
	}, nil
}
