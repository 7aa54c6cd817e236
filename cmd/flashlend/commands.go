package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/chronodrachma/flashlend/pkg/core/fixedpoint"
	"github.com/chronodrachma/flashlend/pkg/core/types"
	"github.com/chronodrachma/flashlend/pkg/lending"
	"github.com/chronodrachma/flashlend/pkg/processor"
	"github.com/chronodrachma/flashlend/pkg/rpc"
	"github.com/chronodrachma/flashlend/pkg/wallet"
)

func newKeygenCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a keypair and write the private key to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}
			key, err := wallet.GenerateKeyPair()
			if err != nil {
				return err
			}
			if err := wallet.SaveKey(out, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.PublicKey())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "flashlend-key", "key file to write")
	return cmd
}

func newFundCommand(opts *rootOptions) *cobra.Command {
	var mint, owner string
	var amount uint64
	cmd := &cobra.Command{
		Use:   "fund <address>",
		Short: "Create or overwrite a token account in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc := types.TokenAccount{Amount: amount}
			var err error
			if acc.Address, err = solana.PublicKeyFromBase58(args[0]); err != nil {
				return fmt.Errorf("address: %w", err)
			}
			if acc.Mint, err = solana.PublicKeyFromBase58(mint); err != nil {
				return fmt.Errorf("mint: %w", err)
			}
			if acc.Owner, err = solana.PublicKeyFromBase58(owner); err != nil {
				return fmt.Errorf("owner: %w", err)
			}

			n, err := openNode(cmd, opts)
			if err != nil {
				return err
			}
			defer n.Close()
			if err := n.store.PutAccount(acc); err != nil {
				return err
			}
			n.log.Info("account funded", "address", acc.Address, "amount", acc.Amount)
			return nil
		},
	}
	cmd.Flags().StringVar(&mint, "mint", "", "mint address")
	cmd.Flags().StringVar(&owner, "owner", "", "owner address")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "balance in base units")
	requireFlags(cmd, "mint", "owner")
	return cmd
}

func newBalanceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Print a token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("address: %w", err)
			}
			n, err := openNode(cmd, opts)
			if err != nil {
				return err
			}
			defer n.Close()

			acc, err := n.store.GetAccount(addr)
			if err != nil {
				return err
			}
			return printJSON(cmd, rpc.AccountResponse{
				Address: acc.Address.String(),
				Mint:    acc.Mint.String(),
				Owner:   acc.Owner.String(),
				Amount:  acc.Amount,
			})
		},
	}
}

func newRepayCommand(opts *rootOptions) *cobra.Command {
	var keyFile, destination, source string
	var amount, nonce uint64
	cmd := &cobra.Command{
		Use:   "repay",
		Short: "Repay a flash loan by invoking the receiver program",
		Long: `Signs and executes a receiver instruction that moves amount tokens from
the source account, owned by the key in --key, to the destination reserve.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := wallet.LoadKey(keyFile)
			if err != nil {
				return err
			}
			dst, err := solana.PublicKeyFromBase58(destination)
			if err != nil {
				return fmt.Errorf("destination: %w", err)
			}
			src, err := solana.PublicKeyFromBase58(source)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}

			n, err := openNode(cmd, opts)
			if err != nil {
				return err
			}
			defer n.Close()

			tx := types.NewTransaction(types.Instruction{
				ProgramID: n.receiverID,
				Accounts: []types.AccountMeta{
					{Pubkey: dst, IsWritable: true},
					{Pubkey: src, IsWritable: true},
					{Pubkey: n.tokenID},
					{Pubkey: key.PublicKey(), IsSigner: true},
				},
				Data: processor.NewRepayInstruction(amount).Pack(),
			})
			tx.Nonce = nonce
			if !cmd.Flags().Changed("nonce") {
				tx.Nonce = uint64(time.Now().UnixNano())
			}
			if err := wallet.SignTransaction(tx, key); err != nil {
				return err
			}

			receipt, execErr := n.host.Execute(tx)
			if receipt != nil {
				if err := printReceipt(cmd, receipt); err != nil {
					return err
				}
			}
			return execErr
		},
	}
	cmd.Flags().StringVar(&keyFile, "key", "flashlend-key", "authority key file")
	cmd.Flags().StringVar(&destination, "destination", "", "reserve liquidity account")
	cmd.Flags().StringVar(&source, "source", "", "repaying token account")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to repay in base units")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "transaction nonce (default: current time in nanoseconds)")
	requireFlags(cmd, "destination", "source")
	return cmd
}

func newReceiptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <id>",
		Short: "Print a stored transaction receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := solana.HashFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("id: %w", err)
			}
			n, err := openNode(cmd, opts)
			if err != nil {
				return err
			}
			defer n.Close()

			receipt, err := n.store.GetReceipt(id)
			if err != nil {
				return err
			}
			return printReceipt(cmd, receipt)
		},
	}
}

func newQuoteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amount>",
		Short: "Print the flash loan fees for borrowing amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			total, host, err := cfg.Fees().CalculateFlashLoanFees(amount)
			if err != nil {
				return err
			}
			if amount > ^uint64(0)-total {
				return fixedpoint.ErrOverflow
			}
			return printJSON(cmd, rpc.QuoteResponse{Amount: amount, TotalFee: total, HostFee: host, Repay: amount + total})
		},
	}
}

func newAccrueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accrue <borrowed> <annual-rate-percent> <slots>",
		Short: "Compound a borrowed amount at an annual rate over a number of slots",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			borrowed, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("borrowed: %w", err)
			}
			percent, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return fmt.Errorf("annual rate: %w", err)
			}
			slots, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("slots: %w", err)
			}

			owed, err := lending.CompoundInterest(fixedpoint.NewDecimal(borrowed), fixedpoint.RateFromPercent(uint8(percent)), slots)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), owed)
			return nil
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger and host over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd, opts)
			if err != nil {
				return err
			}
			defer n.Close()

			srv := rpc.NewServer(n.host, n.store, n.cfg.Fees(), n.log)
			errc := make(chan error, 1)
			go func() { errc <- srv.Start(n.cfg.ListenAddr) }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errc:
				return err
			case <-sig:
				n.log.Info("shutting down")
				return nil
			}
		},
	}
	cmd.Flags().String("listen-addr", ":8899", "HTTP listen address")
	return cmd
}

// requireFlags marks flags of cmd as required. It panics if one is not
// defined on cmd.
func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func printReceipt(cmd *cobra.Command, receipt *types.Receipt) error {
	return printJSON(cmd, rpc.NewReceiptResponse(receipt))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
