package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/lending"
	"github.com/chronodrachma/flashlend/pkg/runtime"
)

// DefaultReceiverProgramID is the address the flash loan receiver is
// registered under unless configured otherwise.
const DefaultReceiverProgramID = "3RAZ573pyWL2gE4siwDZ4EisCUPBRG11DENEx3upVbPR"

// Config holds the node settings.
type Config struct {
	LedgerPath        string `mapstructure:"ledger_path"`
	LogLevel          string `mapstructure:"log_level"`
	ListenAddr        string `mapstructure:"listen_addr"`
	MaxInvokeDepth    int    `mapstructure:"max_invoke_depth"`
	ReceiverProgramID string `mapstructure:"receiver_program_id"`
	TokenProgramID    string `mapstructure:"token_program_id"`
	FlashLoanFeeWad   uint64 `mapstructure:"flash_loan_fee_wad"`
	HostFeePercentage uint8  `mapstructure:"host_fee_percentage"`
}

// Defaults returns the value of every setting when nothing overrides it.
func Defaults() map[string]any {
	return map[string]any{
		"ledger_path":         "./flashlend-ledger",
		"log_level":           "info",
		"listen_addr":         ":8899",
		"max_invoke_depth":    runtime.DefaultMaxInvokeDepth,
		"receiver_program_id": DefaultReceiverProgramID,
		"token_program_id":    solana.TokenProgramID.String(),
		"flash_loan_fee_wad":  fixedpoint.WAD / 20,
		"host_fee_percentage": 20,
	}
}

// Load resolves the configuration from, in increasing precedence: defaults,
// the config file (file if set, else flashlend.yaml in the working
// directory), FLASHLEND_* environment variables, and flags of cmd that were
// set explicitly. Flags are matched by key with '_' written as '-'.
func Load(cmd *cobra.Command, file string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("flashlend")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("flashlend")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for key := range Defaults() {
			if f := cmd.Flags().Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks that every setting parses.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := c.ReceiverID(); err != nil {
		return err
	}
	if _, err := c.TokenProgram(); err != nil {
		return err
	}
	if c.HostFeePercentage > 100 {
		return fmt.Errorf("host_fee_percentage: %d exceeds 100", c.HostFeePercentage)
	}
	return nil
}

func (c Config) ReceiverID() (types.Pubkey, error) {
	id, err := solana.PublicKeyFromBase58(c.ReceiverProgramID)
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("receiver_program_id: %w", err)
	}
	return id, nil
}

func (c Config) TokenProgram() (types.Pubkey, error) {
	id, err := solana.PublicKeyFromBase58(c.TokenProgramID)
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("token_program_id: %w", err)
	}
	return id, nil
}

func (c Config) Fees() lending.Fees {
	return lending.Fees{FlashLoanFeeWad: c.FlashLoanFeeWad, HostFeePercentage: c.HostFeePercentage}
}
