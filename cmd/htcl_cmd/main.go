package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/TEENet-io/htcl-go/cmd"
	"github.com/TEENet-io/htcl-go/config"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/htcl"
	"github.com/TEENet-io/htcl-go/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "HTCL_CONFIG"
	ENV_ACCOUNT_WIF      = "HTCL_ACCOUNT_WIF"
	ENV_ONLINE           = "HTCL_ONLINE"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	cfg, err := loadConfig(viper.GetString(ENV_CONFIG_FILE_PATH))
	if err != nil {
		fmt.Printf("Error loading configuration: %s\n", err)
		return
	}
	if err := logconfig.ConfigLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Error configuring logger: %s\n", err)
		return
	}

	svc, err := htcl.New(cfg)
	if err != nil {
		fmt.Printf("Error creating HTCL service: %s\n", err)
		return
	}
	hu, err := cmd.NewHtclUser(svc, viper.GetString(ENV_ACCOUNT_WIF), viper.GetBool(ENV_ONLINE))
	if err != nil {
		fmt.Printf("Error creating HTCL user: %s\n", err)
		return
	}
	defer hu.Close()

	fmt.Println(strings.Repeat("=", 30))
	fmt.Println("Welcome to HTCL command line tool.")
	fmt.Printf("Network: %s, hashlock family: %s, timelock unit: %s\n",
		svc.Network().Name, svc.Family(), cfg.TimelockUnit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handler to catch Ctrl-C.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		_captured := <-sig
		fmt.Printf("\nReceived interrupt signal, shutting down... %v\n", _captured)
		cancel()
		os.Exit(0)
	}()

	reporting := false
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Println("What to do:")
		fmt.Println("1) New random secret")
		fmt.Println("2) Derive deterministic secret from a private key")
		fmt.Println("3) Compile contract")
		fmt.Println("4) Audit contract program")
		fmt.Println("5) Convert hashlock representation")
		fmt.Println("6) View balance")
		fmt.Println("7) Fund contract")
		fmt.Println("8) Tell BTC network to mine blocks (regtest only)")
		fmt.Println("9) List stored contracts")
		fmt.Println("10) Start http reporter")
		fmt.Print("Type option and press Enter: ")

		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			secret, hl, err := svc.NewSecret()
			if err != nil {
				fmt.Printf("Error generating secret: %s\n", err)
				break
			}
			fmt.Printf("Secret (keep it private): %s\n", secret.Prefixed())
			fmt.Printf("Hashlock: %s\n", hl)
		case "2":
			deriveSecret(scanner, svc)
		case "3":
			if d := compileContract(scanner, hu); d != nil {
				printContract(d)
				saveContract(ctx, scanner, hu, d)
			}
		case "4":
			d, asm, err := hu.Audit(ask(scanner, "Program hex: "))
			if err != nil {
				fmt.Printf("Not an HTCL program: %s\n", err)
				break
			}
			printContract(d)
			fmt.Printf("Disassembly: %s\n", asm)
		case "5":
			out, err := cmd.ConvertHashlock(ask(scanner, "Hashlock: "), ask(scanner, "Target (raw|prefixed): "))
			if err != nil {
				fmt.Printf("Error converting hashlock: %s\n", err)
				break
			}
			fmt.Println(out)
		case "6":
			balance, err := hu.GetBalance()
			if err != nil {
				fmt.Printf("Error getting balance: %s\n", err)
				break
			}
			fmt.Printf("Your balance: %d\n", balance)
		case "7":
			fundContract(scanner, hu)
		case "8":
			fmt.Println("Only use this option in local regtest mode.")
			n, err := hu.MineBlocks(cmd.REGTEST_GENERATE_BLOCKS)
			if err != nil {
				fmt.Printf("Error mining blocks: %s\n", err)
				break
			}
			fmt.Printf("Mined %d blocks\n", n)
		case "9":
			entries, err := hu.Contracts(ctx, ask(scanner, "State (created|funded|claimed_by_secret|refunded_after_expiry): "))
			if err != nil {
				fmt.Printf("Error listing contracts: %s\n", err)
				break
			}
			for _, e := range entries {
				fmt.Printf("%s timelock=%d amount=%d funding=%s:%d\n", e.Record.CommittedAddress,
					e.Record.Timelock, e.Record.Amount, e.FundingTxID, e.FundingVout)
			}
		case "10":
			if reporting {
				fmt.Println("Reporter already running.")
				break
			}
			reporting = true
			r := svc.Reporter(hu.Store)
			go func() {
				if err := r.Run(); err != nil {
					fmt.Printf("Reporter stopped: %s\n", err)
				}
			}()
			fmt.Printf("Reporter listening on %s:%s\n", cfg.HttpIP, cfg.HttpPort)
		default:
			fmt.Println("Unknown option, try again.")
		}
		fmt.Println()
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	if !cmd.FileExists(path) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}
	return config.Load(path)
}

func ask(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func deriveSecret(scanner *bufio.Scanner, svc *htcl.Service) {
	key, err := hashlock.KeyFromHex(ask(scanner, "Private key (hex): "))
	if err != nil {
		fmt.Printf("Invalid private key: %s\n", err)
		return
	}
	secret, info, err := svc.DeriveSecret(key, time.Now())
	if err != nil {
		fmt.Printf("Error deriving secret: %s\n", err)
		return
	}
	hl, err := secret.Hashlock(svc.Family())
	if err != nil {
		fmt.Printf("Error hashing secret: %s\n", err)
		return
	}
	fmt.Printf("Wallet: %s, method: %s, bucket: %d\n", info.WalletAddress.Hex(), info.Method, info.TimeBucket)
	fmt.Printf("Secret (keep it private): %s\n", secret.Prefixed())
	fmt.Printf("Hashlock: %s\n", hl)
}

func compileContract(scanner *bufio.Scanner, hu *cmd.HtclUser) *contract.Descriptor {
	claimant := ask(scanner, "Claimant public key (hex): ")
	refundee := ask(scanner, "Refundee public key (hex): ")
	timelock, err := strconv.ParseInt(ask(scanner, "Timelock: "), 10, 64)
	if err != nil {
		fmt.Printf("Invalid timelock: %s\n", err)
		return nil
	}
	d, err := hu.CompileContract(claimant, refundee, timelock, ask(scanner, "Hashlock: "))
	if err != nil {
		fmt.Printf("Error compiling contract: %s\n", err)
		return nil
	}
	return d
}

func saveContract(ctx context.Context, scanner *bufio.Scanner, hu *cmd.HtclUser, d *contract.Descriptor) {
	if ask(scanner, "Store contract? (y/n): ") != "y" {
		return
	}
	amount, err := strconv.ParseInt(ask(scanner, "Amount (in satoshis): "), 10, 64)
	if err != nil {
		fmt.Printf("Invalid amount: %s\n", err)
		return
	}
	var secret *hashlock.Secret
	if text := ask(scanner, "Secret (empty if not yours): "); text != "" {
		s, err := hashlock.ParseSecret(text)
		if err != nil {
			fmt.Printf("Invalid secret: %s\n", err)
			return
		}
		secret = &s
	}
	err = hu.SaveContract(ctx, d, ask(scanner, "Creator: "), ask(scanner, "Recipient: "), amount, secret)
	if err != nil {
		fmt.Printf("Error storing contract: %s\n", err)
		return
	}
	fmt.Println("Contract stored.")
}

func fundContract(scanner *bufio.Scanner, hu *cmd.HtclUser) {
	d, _, err := hu.Audit(ask(scanner, "Program hex: "))
	if err != nil {
		fmt.Printf("Not an HTCL program: %s\n", err)
		return
	}
	amount, err := strconv.ParseInt(ask(scanner, "Amount (in satoshis): "), 10, 64)
	if err != nil {
		fmt.Printf("Invalid amount: %s\n", err)
		return
	}
	txid, err := hu.FundContract(d, amount)
	if err != nil {
		fmt.Printf("Error funding contract: %s\n", err)
		return
	}
	fmt.Printf("Funding tx sent: %s\n", txid)
}

func printContract(d *contract.Descriptor) {
	fmt.Printf("Address: %s\n", d.Address())
	fmt.Printf("Program: %s\n", d.Program().Hex())
	fmt.Printf("Hashlock: %s, timelock: %s\n", d.Hashlock(), d.Timelock())
}
