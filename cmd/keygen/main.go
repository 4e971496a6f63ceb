// keygen is a CLI tool for generating session token signing keys and session tokens.
//
//	keygen generate -n books -t ed25519 -o ./keys
//	keygen token -k ./keys/books.private.jwk -u alice -r ROLE_ADMIN
package main

import (
	"crypto"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/apitest/auth"
	apicrypto "github.com/information-sharing-networks/apitest/internal/crypto"
	"github.com/information-sharing-networks/apitest/internal/version"
)

// file naming convention - name.public.jwk and name.private.jwk
const (
	publicKeyFileNameFormat  = "%s.public.jwk"
	privateKeyFileNameFormat = "%s.private.jwk"
)

var (
	name      string
	outputDir string
	keyType   string
	rsaSize   int
	kid       string

	keyPath  string
	username string
	roles    []string
	issuer   string
	ttl      time.Duration
	format   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "keygen",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "Session token key and token generator",
		Long:              "Generate RSA or Ed25519 signing keys in JWK format and session tokens signed with them",
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		Long:  "Generate a new RSA or Ed25519 key pair in JWK format. Use the private key as SIGNING_KEY_PATH.",
		RunE:  runGenerate,
	}

	generateCmd.Flags().StringVarP(&name, "name", "n", "", "Key file name prefix (e.g., bookstore) [required]")
	generateCmd.Flags().StringVarP(&keyType, "type", "t", "", "Key type: rsa or ed25519 [required]")
	generateCmd.Flags().StringVarP(&outputDir, "outputdir", "o", "", "Output directory for generated keys [required]")
	generateCmd.Flags().IntVarP(&rsaSize, "size", "s", 4096, "RSA key size in bits (2048 or 4096, default: 4096)")
	generateCmd.Flags().StringVarP(&kid, "kid", "k", "", "Key ID (default: auto-generated from thumbprint)")
	generateCmd.MarkFlagRequired("name")
	generateCmd.MarkFlagRequired("type")
	generateCmd.MarkFlagRequired("outputdir")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Create a session token",
		Long: `Create a session token for a user, signed with a private JWK.

The token is printed as a bearer token, or as the jwt_hp and jwt_s cookies
(--format cookies) ready to be sent in a Cookie header.`,
		RunE: runToken,
	}

	tokenCmd.Flags().StringVarP(&keyPath, "key", "k", "", "Path to the private JWK file [required]")
	tokenCmd.Flags().StringVarP(&username, "user", "u", "", "User identifier (username claim) [required]")
	tokenCmd.Flags().StringSliceVarP(&roles, "role", "r", nil, "Role of the user (repeatable)")
	tokenCmd.Flags().StringVarP(&issuer, "issuer", "i", "bookstore", "Issuer (iss claim)")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().StringVarP(&format, "format", "f", "bearer", "Output format: bearer or cookies")
	tokenCmd.MarkFlagRequired("key")
	tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(generateCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if keyType != "rsa" && keyType != "ed25519" {
		return fmt.Errorf("invalid key type: %s (must be 'rsa' or 'ed25519')", keyType)
	}

	if keyType == "rsa" && rsaSize != 2048 && rsaSize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048 or 4096)", rsaSize)
	}

	// make the directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var (
		privateKey crypto.Signer
		err        error
	)
	if keyType == "rsa" {
		fmt.Printf("Generating %d-bit RSA key pair: %s\n", rsaSize, name)
		privateKey, err = apicrypto.GenerateRSAKeyPair(rsaSize)
	} else {
		fmt.Printf("Generating Ed25519 key pair: %s\n", name)
		privateKey, err = apicrypto.GenerateEd25519KeyPair()
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s key: %w", keyType, err)
	}

	// Generate key ID from thumbprint if not provided
	keyID := kid
	if keyID == "" {
		keyID, err = apicrypto.GenerateKeyID(privateKey.Public())
		if err != nil {
			return fmt.Errorf("failed to generate key ID: %w", err)
		}
	}

	publicFile := fmt.Sprintf(publicKeyFileNameFormat, name)
	if err := apicrypto.SavePublicKeyToJWKFile(privateKey.Public(), keyID, outputDir, publicFile); err != nil {
		return fmt.Errorf("failed to save public key: %w", err)
	}
	fmt.Printf("✓ Public JWK:  %s (kid: %s)\n", filepath.Join(outputDir, publicFile), keyID)

	privateFile := fmt.Sprintf(privateKeyFileNameFormat, name)
	if err := apicrypto.SavePrivateKeyToJWKFile(privateKey, keyID, outputDir, privateFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}
	fmt.Printf("✓ Private JWK: %s (kid: %s)\n", filepath.Join(outputDir, privateFile), keyID)

	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	if format != "bearer" && format != "cookies" {
		return fmt.Errorf("invalid format: %s (must be 'bearer' or 'cookies')", format)
	}

	privateKey, keyID, err := apicrypto.ReadPrivateKeyFromJWKPath(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	signer, err := auth.NewSigner(privateKey, keyID, issuer, ttl)
	if err != nil {
		return err
	}

	token, err := signer.Create(auth.NewUser(username, roles...))
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	if format == "bearer" {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}

	cookies, err := auth.SessionCookies(token, false)
	if err != nil {
		return err
	}
	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = c.Name + "=" + c.Value
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(pairs, "; "))
	return nil
}
