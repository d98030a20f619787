package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lidofinance/rta/node/api/http_api"
	"github.com/lidofinance/rta/node/config"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/metrics"
	"github.com/lidofinance/rta/node/services"
	"github.com/lidofinance/rta/node/services/node"
)

const (
	flagConfig             = "config"
	flagUserName           = "username"
	flagListenAddr         = "listen_addr"
	flagStateBackend       = "state_backend"
	flagStateDBDSN         = "state_dbdsn"
	flagPostgresDSN        = "postgres_dsn"
	flagJournalBackend     = "journal_backend"
	flagJournalPath        = "journal_path"
	flagKafkaEndpoint      = "kafka_endpoint"
	flagKafkaTopic         = "kafka_topic"
	flagKafkaTrustStore    = "kafka_truststore_path"
	flagSigners            = "signers"
	flagRequiredSignatures = "required_signatures"
	flagTransferAgent      = "transfer_agent"
	flagLogLevel           = "log_level"
	flagLogFormat          = "log_format"

	shutdownTimeout = 10 * time.Second
)

// viper keys of the flags above
var flagKeys = map[string]string{
	flagUserName:           "username",
	flagListenAddr:         "http_api_config.listen_addr",
	flagStateBackend:       "state.backend",
	flagStateDBDSN:         "state.dbdsn",
	flagPostgresDSN:        "state.postgres_dsn",
	flagJournalBackend:     "journal.backend",
	flagJournalPath:        "journal.file_path",
	flagKafkaEndpoint:      "journal.kafka.endpoint",
	flagKafkaTopic:         "journal.kafka.topic",
	flagKafkaTrustStore:    "journal.kafka.truststore_path",
	flagSigners:            "genesis.signers",
	flagRequiredSignatures: "genesis.required_signatures",
	flagTransferAgent:      "genesis.transfer_agent",
	flagLogLevel:           "log.level",
	flagLogFormat:          "log.format",
}

func init() {
	rootCmd.PersistentFlags().String(flagConfig, "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String(flagUserName, "rta_node", "Node name")
	rootCmd.PersistentFlags().String(flagListenAddr, "localhost:8080", "Listen Address")
	rootCmd.PersistentFlags().String(flagStateBackend, config.StateBackendLevelDB, "State backend: leveldb, postgres or memory")
	rootCmd.PersistentFlags().String(flagStateDBDSN, "./rta_state", "LevelDB state path")
	rootCmd.PersistentFlags().String(flagPostgresDSN, "", "Postgres DSN of the state")
	rootCmd.PersistentFlags().String(flagJournalBackend, config.JournalBackendFile, "Event journal backend: file, kafka or none")
	rootCmd.PersistentFlags().String(flagJournalPath, "./rta_journal", "Event journal file")
	rootCmd.PersistentFlags().String(flagKafkaEndpoint, "localhost:9093", "Kafka endpoint of the event journal")
	rootCmd.PersistentFlags().String(flagKafkaTopic, "rta_events", "Kafka topic of the event journal")
	rootCmd.PersistentFlags().String(flagKafkaTrustStore, "", "Path to kafka truststore")
	rootCmd.PersistentFlags().StringSlice(flagSigners, nil, "Genesis signer addresses")
	rootCmd.PersistentFlags().Uint64(flagRequiredSignatures, 1, "Genesis required signatures")
	rootCmd.PersistentFlags().String(flagTransferAgent, "", "Transfer agent of the ledger, the registry by default")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "Log level")
	rootCmd.PersistentFlags().String(flagLogFormat, "console", "Log format: console or json")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	configPath, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	return config.Load(v)
}

func startNodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "starts the ledger node",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				log.Fatalf("failed to read configuration: %v", err)
			}

			l, err := logger.NewLogger(cfg.Username, cfg.Log.Format, cfg.Log.Level)
			if err != nil {
				log.Fatalf("Failed to init logger: %v", err)
			}

			metrics.RegisterMetrics()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			stg, err := services.InitState(ctx, cfg.State)
			if err != nil {
				log.Fatalf("Failed to init state: %v", err)
			}
			defer stg.Close()

			journal, err := services.InitJournal(cfg.Journal)
			if err != nil {
				log.Fatalf("Failed to init event journal: %v", err)
			}
			if journal != nil {
				defer journal.Close()
			}

			sp, err := services.NewServiceProvider(cfg, stg, journal, l)
			if err != nil {
				log.Fatalf("Failed to init services: %v", err)
			}

			n, err := node.NewNode(ctx, cfg.Username, sp)
			if err != nil {
				log.Fatalf("Failed to init node: %v", err)
			}

			api := http_api.NewRESTApiProvider(cfg.HttpApiConfig, n, l)

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				n.GetLogger().Info().Str("listen_addr", cfg.HttpApiConfig.ListenAddr).Msg("starting HTTP server")
				errCh <- api.Start()
			}()

			select {
			case sig := <-sigs:
				n.GetLogger().Info().Str("signal", sig.String()).Msg("received signal, stopping node")
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					n.GetLogger().Error().Err(err).Msg("HTTP server error")
				}
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := api.Stop(shutdownCtx); err != nil {
				n.GetLogger().Error().Err(err).Msg("failed to stop HTTP server")
			}
			n.GetLogger().Info().Msg("node stopped")
		},
	}
}

func showConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show_config",
		Short: "prints the resolved configuration and genesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			genesis, err := cfg.Genesis.Parse()
			if err != nil {
				return err
			}
			fmt.Printf("username: %s\n", cfg.Username)
			fmt.Printf("listen address: %s\n", cfg.HttpApiConfig.ListenAddr)
			fmt.Printf("state: %s\n", cfg.State.Backend)
			fmt.Printf("journal: %s\n", cfg.Journal.Backend)
			fmt.Printf("registry: %s\n", genesis.RegistryAddress.Hex())
			fmt.Printf("ledger: %s\n", genesis.LedgerAddress.Hex())
			fmt.Printf("transfer agent: %s\n", genesis.TransferAgent.Hex())
			fmt.Printf("required signatures: %d of %d\n", genesis.Registry.RequiredSignatures, len(genesis.Registry.Signers))
			for _, s := range genesis.Registry.Signers {
				fmt.Printf("  signer %s\n", s.Hex())
			}
			return nil
		},
	}
}

var rootCmd = &cobra.Command{
	Use:   "rta_node",
	Short: "multi-signature transfer agent ledger node",
}

func main() {
	rootCmd.AddCommand(
		startNodeCommand(),
		showConfigCommand(),
	)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute root command: %v", err)
	}
}
