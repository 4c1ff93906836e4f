package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"lukechampine.com/blake3"
)

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the BLAKE3 digest of a file",
		Long: `hash reads a file and prints its BLAKE3-256 digest, the same digest
"dexios encrypt --hash" prints for a freshly written ciphertext. Use it to
verify a file's integrity independently of decryption.

Example:
  dexios hash secret.txt.enc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer closeQuietly(f)

			h := blake3.New(32, nil)
			if _, err := io.Copy(h, f); err != nil {
				return fmt.Errorf("hash %s: %w", args[0], err)
			}

			fmt.Printf("%x  %s\n", h.Sum(nil), args[0])
			return nil
		},
	}
}
