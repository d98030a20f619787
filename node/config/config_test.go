package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/node/types"
)

const (
	signerA = "0x00000000000000000000000000000000000000a1"
	signerB = "0x00000000000000000000000000000000000000b2"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	v := viper.New()
	v.Set("genesis.signers", []string{signerA, signerB})
	v.Set("genesis.required_signatures", 2)

	cfg, err := Load(v)
	req.NoError(err)
	req.Equal("rta_node", cfg.Username)
	req.Equal("localhost:8080", cfg.HttpApiConfig.ListenAddr)
	req.Equal(StateBackendLevelDB, cfg.State.Backend)
	req.Equal(JournalBackendFile, cfg.Journal.Backend)
	req.Equal(10*time.Second, cfg.Journal.Kafka.Timeout)
	req.Equal("console", cfg.Log.Format)

	genesis, err := cfg.Genesis.Parse()
	req.NoError(err)
	req.Equal(genesis.RegistryAddress, genesis.TransferAgent)
	req.Equal([]common.Address{common.HexToAddress(signerA), common.HexToAddress(signerB)}, genesis.Registry.Signers)
	req.Equal(uint64(2), genesis.Registry.RequiredSignatures)
	req.Equal(types.FeeTypeFlat, genesis.FeeParameters.Type)
	req.True(genesis.FeeParameters.Value.IsZero())
}

func TestLoad_Env(t *testing.T) {
	req := require.New(t)

	t.Setenv("RTA_USERNAME", "node_from_env")
	t.Setenv("RTA_STATE_BACKEND", StateBackendMemory)
	t.Setenv("RTA_JOURNAL_BACKEND", JournalBackendNone)
	t.Setenv("RTA_GENESIS_SIGNERS", signerA+","+signerB)
	t.Setenv("RTA_GENESIS_FEE_TYPE", "percentage")
	t.Setenv("RTA_GENESIS_FEE_VALUE", "250")

	cfg, err := Load(viper.New())
	req.NoError(err)
	req.Equal("node_from_env", cfg.Username)
	req.Equal(StateBackendMemory, cfg.State.Backend)
	req.Equal(JournalBackendNone, cfg.Journal.Backend)

	genesis, err := cfg.Genesis.Parse()
	req.NoError(err)
	req.Len(genesis.Registry.Signers, 2)
	req.Equal(types.FeeTypePercentage, genesis.FeeParameters.Type)
}

func TestLoad_File(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "rta.yaml")
	req.NoError(os.WriteFile(path, []byte(`
username: file_node
state:
  backend: postgres
  postgres_dsn: postgres://rta@localhost/rta
journal:
  backend: kafka
  kafka:
    endpoint: broker:9093
    topic: rta
    producer_credentials:
      username: producer
      password: producerpass
genesis:
  signers:
    - "`+signerA+`"
  transfer_agent: "0x00000000000000000000000000000000000000f0"
`), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	req.NoError(err)
	req.Equal("file_node", cfg.Username)
	req.Equal(StateBackendPostgres, cfg.State.Backend)
	req.Equal("broker:9093", cfg.Journal.Kafka.Endpoint)
	req.Equal("producer", cfg.Journal.Kafka.ProducerCredentials.Username)
	req.Nil(cfg.Journal.Kafka.ConsumerCredentials.Mechanism())

	genesis, err := cfg.Genesis.Parse()
	req.NoError(err)
	req.Equal(common.HexToAddress("0x00000000000000000000000000000000000000f0"), genesis.TransferAgent)
}

func TestLoad_UnquotedAddresses(t *testing.T) {
	testCases := map[string]string{
		"signer list": `
genesis:
  signers:
    - ` + signerA + `
`,
		"fee token list": `
genesis:
  signers:
    - "` + signerA + `"
  accepted_fee_tokens:
    - ` + signerB + `
`,
		"transfer agent": `
genesis:
  signers:
    - "` + signerA + `"
  transfer_agent: 0x00000000000000000000000000000000000000f0
`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)

			path := filepath.Join(t.TempDir(), "rta.yaml")
			req.NoError(os.WriteFile(path, []byte(content), 0600))

			v := viper.New()
			v.SetConfigFile(path)
			_, err := Load(v)
			req.Error(err)
			req.Contains(err.Error(), "quoted hex string")
		})
	}
}

func TestGenesisConfig_Parse_Errors(t *testing.T) {
	valid := func() *GenesisConfig {
		return &GenesisConfig{
			RegistryAddress:    "0x0000000000000000000000000000000000000001",
			LedgerAddress:      "0x0000000000000000000000000000000000000002",
			Signers:            []string{signerA, signerB},
			RequiredSignatures: 2,
			FeeType:            "flat",
			FeeValue:           "0",
		}
	}

	testCases := map[string]func(g *GenesisConfig){
		"no signers":          func(g *GenesisConfig) { g.Signers = nil },
		"duplicate signers":   func(g *GenesisConfig) { g.Signers = []string{signerA, signerA} },
		"zero threshold":      func(g *GenesisConfig) { g.RequiredSignatures = 0 },
		"threshold too high":  func(g *GenesisConfig) { g.RequiredSignatures = 3 },
		"bad signer":          func(g *GenesisConfig) { g.Signers = []string{"0x1234"} },
		"bad agent":           func(g *GenesisConfig) { g.TransferAgent = "agent" },
		"shared address":      func(g *GenesisConfig) { g.LedgerAddress = g.RegistryAddress },
		"unknown fee type":    func(g *GenesisConfig) { g.FeeType = "tiered" },
		"bad fee value":       func(g *GenesisConfig) { g.FeeValue = "ten" },
		"percentage too high": func(g *GenesisConfig) { g.FeeType = "percentage"; g.FeeValue = "10001" },
	}

	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			g := valid()
			mutate(g)
			_, err := g.Parse()
			require.Error(t, err)
		})
	}

	_, err := valid().Parse()
	require.NoError(t, err)
}

func TestValidate_Backends(t *testing.T) {
	req := require.New(t)

	v := viper.New()
	v.Set("genesis.signers", []string{signerA})
	v.Set("state.backend", "sqlite")
	_, err := Load(v)
	req.Error(err)

	v = viper.New()
	v.Set("genesis.signers", []string{signerA})
	v.Set("journal.backend", "tendermint")
	_, err = Load(v)
	req.Error(err)

	v = viper.New()
	v.Set("genesis.signers", []string{signerA})
	v.Set("state.backend", StateBackendPostgres)
	_, err = Load(v)
	req.Error(err)
}
