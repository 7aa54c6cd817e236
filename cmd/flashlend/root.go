package main

import (
	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/chronodrachma/flashlend/pkg/config"
	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/ledger"
	"github.com/chronodrachma/flashlend/pkg/logging"
	"github.com/chronodrachma/flashlend/pkg/runtime"
)

type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "flashlend",
		Short:         "Flash loan receiver host",
		Long:          "Runs the flash loan repayment receiver and a local token program over a persistent ledger.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "config file (default ./flashlend.yaml)")
	f.String("ledger-path", "./flashlend-ledger", "ledger directory")
	f.String("log-level", "info", "log level (debug|info|warn|error)")
	f.Int("max-invoke-depth", runtime.DefaultMaxInvokeDepth, "maximum nested invocation depth")
	f.String("receiver-program-id", config.DefaultReceiverProgramID, "receiver program address")
	f.String("token-program-id", solana.TokenProgramID.String(), "token program address")
	f.Uint64("flash-loan-fee-wad", fixedpoint.WAD/20, "flash loan fee in WADs")
	f.Uint8("host-fee-percentage", 20, "host share of the flash loan fee")

	cmd.AddCommand(newKeygenCommand())
	cmd.AddCommand(newFundCommand(opts))
	cmd.AddCommand(newBalanceCommand(opts))
	cmd.AddCommand(newRepayCommand(opts))
	cmd.AddCommand(newReceiptCommand(opts))
	cmd.AddCommand(newQuoteCommand(opts))
	cmd.AddCommand(newAccrueCommand())
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

// node is the loaded configuration plus the ledger and host built from it.
type node struct {
	cfg        config.Config
	log        *log.Logger
	store      *ledger.BadgerStore
	host       *runtime.Host
	receiverID types.Pubkey
	tokenID    types.Pubkey
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, *log.Logger, error) {
	cfg, err := config.Load(cmd, opts.configFile)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	return cfg, logger, err
}

func openNode(cmd *cobra.Command, opts *rootOptions) (*node, error) {
	cfg, logger, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	receiverID, err := cfg.ReceiverID()
	if err != nil {
		return nil, err
	}
	tokenID, err := cfg.TokenProgram()
	if err != nil {
		return nil, err
	}

	store, err := ledger.NewBadgerStore(cfg.LedgerPath)
	if err != nil {
		return nil, err
	}
	host := runtime.NewHost(store, cfg.MaxInvokeDepth, logger)
	runtime.RegisterDefaults(host, receiverID, tokenID)
	logger.Debug("ledger opened", "path", cfg.LedgerPath, "receiver", receiverID, "token_program", tokenID)
	return &node{cfg: cfg, log: logger, store: store, host: host, receiverID: receiverID, tokenID: tokenID}, nil
}

func (n *node) Close() error {
	return n.store.Close()
}
