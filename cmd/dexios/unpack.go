package main

import (
	"fmt"
	"os"
	"time"

	"github.com/postalsys/dexios-go/internal/archive"
	"github.com/postalsys/dexios-go/internal/erase"
	"github.com/postalsys/dexios-go/internal/logging"
	"github.com/postalsys/dexios-go/internal/pipeline"
	"github.com/spf13/cobra"
)

func unpackCmd() *cobra.Command {
	common := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "unpack <input> <directory>",
		Short: "Decrypt an archive and extract it into a directory",
		Long: `Decrypt a file produced by "dexios pack" into a temporary zip archive,
extract it into the target directory, and securely erase the temporary
archive.

Example:
  dexios unpack project.zip.enc ./restored`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(common, args[0], args[1])
		},
	}

	common.register(cmd.Flags(), loadDefaults())
	return cmd
}

func runUnpack(common *commonFlags, inputPath, destDir string) error {
	log := common.logger()

	password, err := resolvePassword(common.keyfile, false, common.skip)
	if err != nil {
		return err
	}

	defaults := loadDefaults()
	tempErasePasses := defaults.ErasePasses
	if tempErasePasses <= 0 {
		tempErasePasses = erase.DefaultPasses
	}

	in, err := openSeekableInput(inputPath)
	if err != nil {
		return err
	}
	defer closeQuietly(in)

	tmpPath, err := tempSiblingPath(inputPath)
	if err != nil {
		return err
	}
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}

	counting := &countingWriter{w: tmp}
	start := time.Now()
	err = pipeline.Decrypt(in, counting, pipeline.DecryptRequest{Password: password})
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("decrypt archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary archive: %w", err)
	}

	tmpIn, err := os.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reopen temporary archive: %w", err)
	}
	defer tmpIn.Close()

	if err := archive.Unpack(tmpIn, counting.n, destDir); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("extract archive: %w", err)
	}
	elapsed := time.Since(start)

	tmpIn.Close()
	if err := erase.File(tmpPath, tempErasePasses); err != nil {
		return fmt.Errorf("erase temporary archive: %w", err)
	}

	log.Info("decrypted and unpacked archive",
		logging.KeyPath, destDir,
		logging.KeyBytesTotal, counting.n,
		logging.KeyDuration, elapsed.String(),
	)

	return nil
}
