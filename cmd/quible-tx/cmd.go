package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/suffix-labs/quible-tx/pkg/api"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type RuntimeArguments struct {
	// ConfigPath: JSON config file.
	ConfigPath string
	// Config: settings after file, environment and flags are applied.
	Config Config

	// Lookup: environment source, os.LookupEnv outside tests.
	Lookup func(string) (string, bool)
}

func NewRuntimeArguments() *RuntimeArguments {
	return &RuntimeArguments{Config: DefaultConfig(), Lookup: os.LookupEnv}
}

func (arguments *RuntimeArguments) MakeCmd() *cobra.Command {
	var flags Config

	var rootCmd = &cobra.Command{
		Use:   "quible-tx",
		Short: "Encodes, decodes and signs Quible transactions.",
		Long: `
quible-tx works on transaction descriptions: JSON documents listing inputs,
outputs and the locktime. It turns them into the exact bytes a Quible node
accepts, signs them with a local secp256k1 key, and builds identity
create/update transactions.

Settings come from --config (JSON), then QUIBLE_* environment variables,
then flags.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return arguments.resolve(cmd, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&arguments.ConfigPath, "config", "c", "", "Path to a JSON config file")
	pf.StringVar(&flags.SigningKey, "signing-key", "", "Private key that signs transactions")
	pf.StringVar(&flags.FundingKey, "funding-key", "", "Private key owning the funding outpoint of identity transactions")
	pf.StringVar(&flags.KeyFormat, "key-format", api.KeyFormatHex, "Private key format: hex or wif")
	pf.StringVar(&flags.HashMode, "hash-mode", "keccak", "Message hash signed by the key: keccak or eip191")
	pf.StringVar(&flags.LogLevel, "log-level", "info", "Log level")
	pf.Uint64Var(&flags.CertificateLifespan, "certificate-lifespan", 0, "Certificate lifespan in seconds written by identity transactions")

	rootCmd.AddCommand(
		arguments.encodeCmd(),
		arguments.decodeCmd(),
		arguments.txidCmd(),
		arguments.signCmd(),
		arguments.addressCmd(),
		arguments.identityCmd(),
		versionCmd(),
	)

	return rootCmd
}

// resolve builds the effective configuration.
func (arguments *RuntimeArguments) resolve(cmd *cobra.Command, flags Config) error {
	cfg := DefaultConfig()

	if arguments.ConfigPath != "" {
		if err := cfg.LoadConfigFile(arguments.ConfigPath); err != nil {
			return err
		}
	}

	if err := cfg.ApplyEnv(arguments.Lookup); err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("signing-key") {
		cfg.SigningKey = flags.SigningKey
	}
	if changed("funding-key") {
		cfg.FundingKey = flags.FundingKey
	}
	if changed("key-format") {
		cfg.KeyFormat = flags.KeyFormat
	}
	if changed("hash-mode") {
		cfg.HashMode = flags.HashMode
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if changed("certificate-lifespan") {
		cfg.CertificateLifespan = flags.CertificateLifespan
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	arguments.Config = cfg
	log.Debug().
		Str("key_format", cfg.KeyFormat).
		Str("hash_mode", cfg.HashMode).
		Bool("signing_key", cfg.SigningKey != "").
		Msg("Configuration loaded")

	return nil
}

func (arguments *RuntimeArguments) encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode a transaction description to hex",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			hex, err := api.EncodeJSON(description)
			if err != nil {
				return err
			}
			return writeLine(cmd, hex)
		},
	}
}

func (arguments *RuntimeArguments) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode transaction hex into a description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var encoded string
			if len(args) == 1 && args[0] != "-" {
				encoded = args[0]
			} else {
				data, err := readInput(cmd, nil)
				if err != nil {
					return err
				}
				encoded = string(data)
			}

			description, err := api.DecodeHex(strings.TrimSpace(encoded))
			if err != nil {
				return err
			}
			return writeJSON(cmd, json.RawMessage(description))
		},
	}
}

func (arguments *RuntimeArguments) txidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "txid [file]",
		Short: "Print the id of a described transaction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			id, err := api.TxIDJSON(description)
			if err != nil {
				return err
			}
			return writeLine(cmd, id)
		},
	}
}

func (arguments *RuntimeArguments) signCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign [file]",
		Short: "Sign every input of a described transaction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyCfg, err := arguments.Config.signingKey()
			if err != nil {
				return err
			}

			signer, err := api.NewKeySigner(keyCfg, log)
			if err != nil {
				return err
			}

			description, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			result, err := api.SignJSON(cmd.Context(), description, signer)
			if err != nil {
				return err
			}

			log.Info().Str("txid", result.TxID).Msg("Transaction signed")
			return writeJSON(cmd, result)
		},
	}
}

func (arguments *RuntimeArguments) addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the address of the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyCfg, err := arguments.Config.signingKey()
			if err != nil {
				return err
			}

			addr, err := api.AddressFromKey(keyCfg.Key, keyCfg.Format)
			if err != nil {
				return err
			}
			return writeLine(cmd, addr)
		},
	}
}

func (arguments *RuntimeArguments) identityCmd() *cobra.Command {
	identityCmd := &cobra.Command{
		Use:   "identity",
		Short: "Build and sign identity transactions",
	}
	identityCmd.AddCommand(arguments.identityCreateCmd(), arguments.identityUpdateCmd())
	return identityCmd
}

func (arguments *RuntimeArguments) identityCreateCmd() *cobra.Command {
	var req api.CreateIdentityRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an identity holding the given claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fundingCfg, err := arguments.Config.fundingKey()
			if err != nil {
				return err
			}

			funder, err := api.NewKeySigner(fundingCfg, log)
			if err != nil {
				return err
			}

			if req.Owner == "" {
				keyCfg, err := arguments.Config.signingKey()
				if err != nil {
					return errors.Wrap(err, "no --owner given")
				}
				if req.Owner, err = api.AddressFromKey(keyCfg.Key, keyCfg.Format); err != nil {
					return err
				}
			}
			req.CertificateLifespan = arguments.Config.CertificateLifespan

			result, err := api.CreateIdentity(cmd.Context(), req, funder)
			if err != nil {
				return err
			}

			log.Info().Str("identity", result.ID).Str("txid", result.TxID).Msg("Identity transaction signed")
			return writeJSON(cmd, result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Funding.TxID, "funding-txid", "", "Txid of the outpoint paying for the identity")
	f.Uint64Var(&req.Funding.Index, "funding-index", 0, "Index of the outpoint paying for the identity")
	f.StringVar(&req.Owner, "owner", "", "Owner address (defaults to the signing key's address)")
	f.StringArrayVar(&req.Claims, "claim", nil, "Claim to insert; 0x-prefixed values are hex (repeatable)")
	_ = cmd.MarkFlagRequired("funding-txid")

	return cmd
}

func (arguments *RuntimeArguments) identityUpdateCmd() *cobra.Command {
	var req api.UpdateIdentityRequest

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Insert or delete claims of an identity owned by the signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyCfg, err := arguments.Config.signingKey()
			if err != nil {
				return err
			}
			fundingCfg, err := arguments.Config.fundingKey()
			if err != nil {
				return err
			}

			owner, err := api.NewKeySigner(keyCfg, log)
			if err != nil {
				return err
			}
			funder, err := api.NewKeySigner(fundingCfg, log)
			if err != nil {
				return err
			}

			req.CertificateLifespan = arguments.Config.CertificateLifespan

			result, err := api.UpdateIdentity(cmd.Context(), req, funder, owner)
			if err != nil {
				return err
			}

			log.Info().Str("identity", result.ID).Str("txid", result.TxID).Msg("Identity update signed")
			return writeJSON(cmd, result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ID, "id", "", "Identity id")
	f.StringVar(&req.Funding.TxID, "funding-txid", "", "Txid of the outpoint paying for the update")
	f.Uint64Var(&req.Funding.Index, "funding-index", 0, "Index of the outpoint paying for the update")
	f.StringVar(&req.Current.TxID, "current-txid", "", "Txid of the identity's current outpoint")
	f.Uint64Var(&req.Current.Index, "current-index", 0, "Index of the identity's current outpoint")
	f.StringArrayVar(&req.Insert, "insert", nil, "Claim to insert (repeatable)")
	f.StringArrayVar(&req.Delete, "delete", nil, "Claim to delete (repeatable)")
	f.Uint64Var(&req.PermitIndex, "permit-index", 0, "Permit index of the update")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("funding-txid")
	_ = cmd.MarkFlagRequired("current-txid")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeLine(cmd, "quible-tx "+version)
		},
	}
}

// readInput returns the contents of the named file, or stdin when args is
// empty or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read stdin")
	}

	data, err := os.ReadFile(args[0])
	return data, errors.Wrap(err, "failed to read input")
}

func writeLine(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
