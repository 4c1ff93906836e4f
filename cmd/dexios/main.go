// Package main provides the CLI entry point for dexios-go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "dexios",
		Short: "dexios-go - authenticated file encryption",
		Long: `dexios-go encrypts and decrypts files with AES-256-GCM,
XChaCha20-Poly1305 or Deoxys-II-256, using a password-derived key and an
authenticated on-disk header.

It supports whole-file (memory) mode and chunked (stream) mode for files
too large to hold in memory at once, plus header maintenance operations
(dump, restore, strip, key rotation) and directory packing.`,
		Version: Version,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Operations:"})
	rootCmd.AddGroup(&cobra.Group{ID: "header", Title: "Header Maintenance:"})
	rootCmd.AddGroup(&cobra.Group{ID: "util", Title: "Utilities:"})

	encrypt := encryptCmd()
	encrypt.GroupID = "core"
	rootCmd.AddCommand(encrypt)

	decrypt := decryptCmd()
	decrypt.GroupID = "core"
	rootCmd.AddCommand(decrypt)

	pack := packCmd()
	pack.GroupID = "core"
	rootCmd.AddCommand(pack)

	unpack := unpackCmd()
	unpack.GroupID = "core"
	rootCmd.AddCommand(unpack)

	header := headerCmd()
	header.GroupID = "header"
	rootCmd.AddCommand(header)

	hash := hashCmd()
	hash.GroupID = "util"
	rootCmd.AddCommand(hash)

	erase := eraseCmd()
	erase.GroupID = "util"
	rootCmd.AddCommand(erase)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
