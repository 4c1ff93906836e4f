package main

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/postalsys/dexios-go/internal/archive"
	"github.com/postalsys/dexios-go/internal/erase"
	"github.com/postalsys/dexios-go/internal/logging"
	"github.com/postalsys/dexios-go/internal/pipeline"
	"github.com/spf13/cobra"
)

func packCmd() *cobra.Command {
	common := &commonFlags{}
	cipher := &cipherFlags{}

	cmd := &cobra.Command{
		Use:   "pack <directory> <output>",
		Short: "Archive a directory and encrypt it",
		Long: `Recursively archive a directory into a zip file, encrypt that archive,
and securely erase the temporary archive once the encrypted output has
been flushed to disk.

Example:
  dexios pack ./project project.zip.enc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(common, cipher, args[0], args[1])
		},
	}

	defaults := loadDefaults()
	common.register(cmd.Flags(), defaults)
	cipher.register(cmd.Flags(), defaults)
	return cmd
}

func runPack(common *commonFlags, cipher *cipherFlags, dir, outputPath string) error {
	log := common.logger()

	algorithm, err := cipher.resolveAlgorithm()
	if err != nil {
		return err
	}
	mode, err := cipher.resolveMode()
	if err != nil {
		return err
	}

	defaults := loadDefaults()
	tempErasePasses := defaults.ErasePasses
	if tempErasePasses <= 0 {
		tempErasePasses = erase.DefaultPasses
	}

	tmpPath, err := tempSiblingPath(outputPath)
	if err != nil {
		return err
	}

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}
	if err := archive.Pack(dir, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("pack directory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temporary archive: %w", err)
	}

	password, err := resolvePassword(common.keyfile, true, common.skip)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	tmpIn, err := os.Open(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("reopen temporary archive: %w", err)
	}

	out, err := createOutput(outputPath)
	if err != nil {
		tmpIn.Close()
		os.Remove(tmpPath)
		return err
	}
	defer closeQuietly(out)

	var w io.Writer = out
	if common.benchmark {
		w = io.Discard
	}
	counting := &countingWriter{w: w}

	start := time.Now()
	err = pipeline.Encrypt(tmpIn, counting, pipeline.EncryptRequest{
		Password:  password,
		Algorithm: algorithm,
		Mode:      mode,
	})
	elapsed := time.Since(start)
	tmpIn.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("encrypt archive: %w", err)
	}

	if err := erase.File(tmpPath, tempErasePasses); err != nil {
		return fmt.Errorf("erase temporary archive: %w", err)
	}

	log.Info("packed and encrypted directory",
		logging.KeyPath, dir,
		logging.KeyAlgorithm, algorithm.String(),
		logging.KeyMode, mode.String(),
		logging.KeyBytesTotal, counting.n,
		logging.KeyDuration, elapsed.String(),
	)

	return nil
}

// tempSiblingPath returns "<output>.<8-alphanumeric>" in the same directory
// as output, so the temporary archive lands on the same filesystem it will
// ultimately be erased from.
func tempSiblingPath(outputPath string) (string, error) {
	var raw [5]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate temp suffix: %w", err)
	}
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return outputPath + "." + suffix, nil
}
