package main

import (
	"fmt"
	"os"

	"github.com/postalsys/dexios-go/internal/headerops"
	"github.com/spf13/cobra"
)

func headerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Inspect and manipulate dexios-go headers without touching the body",
		Long: `header groups the maintenance operations that only ever read or rewrite
a file's header, never its encrypted body: dumping the header for backup,
restoring it, stripping it off, and rotating the password on a V4 file.`,
	}

	cmd.AddCommand(headerDumpCmd())
	cmd.AddCommand(headerRestoreCmd())
	cmd.AddCommand(headerStripCmd())
	cmd.AddCommand(headerRotateCmd())
	return cmd
}

func headerDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <input> <header-out> <meta-out>",
		Short: "Write an encrypted file's header and a YAML description to two files",
		Long: `Dump reads the header of an encrypted file and writes its raw bytes to
header-out, plus a YAML sidecar recording the source path, header version,
algorithm and mode to meta-out.

Example:
  dexios header dump secret.enc secret.header secret.header.yaml`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openSeekableInput(args[0])
			if err != nil {
				return err
			}
			defer closeQuietly(in)

			headerOut, err := createOutput(args[1])
			if err != nil {
				return err
			}
			defer closeQuietly(headerOut)

			metaOut, err := createOutput(args[2])
			if err != nil {
				return err
			}
			defer closeQuietly(metaOut)

			return headerops.Dump(in, args[0], headerOut, metaOut)
		},
	}
}

func headerRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <header-in> <target>",
		Short: "Write a dumped header back over a target file's header region",
		Long: `Restore reads a previously dumped header from header-in and writes it
over the first bytes of target in place, reversing a prior "header strip".
target must already exist; only its header region is touched.

Example:
  dexios header restore secret.header secret.enc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			headerIn, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer closeQuietly(headerIn)

			target, err := openExistingReadWrite(args[1])
			if err != nil {
				return err
			}
			defer closeQuietly(target)

			return headerops.Restore(headerIn, target)
		},
	}
}

func headerStripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strip <target>",
		Short: "Zero a file's header in place, leaving the encrypted body untouched",
		Long: `Strip parses target's existing header to learn its size, then zeros
those bytes in place. Combined with "header dump", this separates a
file's header from its body without decrypting anything; the file is not
decryptable again until "header restore" puts the header back.

Example:
  dexios header strip secret.enc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := openExistingReadWrite(args[0])
			if err != nil {
				return err
			}
			defer closeQuietly(target)

			return headerops.Strip(target)
		},
	}
}

func headerRotateCmd() *cobra.Command {
	var keyfile string
	var skip bool

	cmd := &cobra.Command{
		Use:   "rotate <file>",
		Short: "Re-wrap a V4 file's master key under a new password",
		Long: `Rotate re-wraps the master key stored in a V4 header under a new
password, in place, without re-encrypting the body. It only works on
V4 headers: V1-V3 archives have no wrapped master key to rotate.

Example:
  dexios header rotate secret.enc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.OpenFile(args[0], os.O_RDWR, 0)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			oldPassword, err := resolvePassword(keyfile, false, skip)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Enter the new password:")
			newPassword, err := resolvePassword("", true, skip)
			if err != nil {
				return err
			}

			return headerops.RotateKey(f, oldPassword, newPassword)
		},
	}

	cmd.Flags().StringVar(&keyfile, "keyfile", "", "read the current password from this file instead of prompting")
	cmd.Flags().BoolVar(&skip, "skip", false, "fail instead of prompting interactively when no --keyfile or DEXIOS_KEY is set")
	return cmd
}
