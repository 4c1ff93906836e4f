package main

import (
	"fmt"
	"io"
	"time"

	"github.com/postalsys/dexios-go/internal/erase"
	"github.com/postalsys/dexios-go/internal/humansize"
	"github.com/postalsys/dexios-go/internal/logging"
	"github.com/postalsys/dexios-go/internal/pipeline"
	"github.com/spf13/cobra"
	"lukechampine.com/blake3"
)

func encryptCmd() *cobra.Command {
	common := &commonFlags{}
	cipher := &cipherFlags{}

	cmd := &cobra.Command{
		Use:   "encrypt <input> <output>",
		Short: "Encrypt a file",
		Long: `Encrypt a file, writing a V4 header followed by the ciphertext.

Examples:
  # Encrypt in memory mode with the default algorithm
  dexios encrypt secret.txt secret.txt.enc

  # Stream mode, for files too large to buffer
  dexios encrypt --mode stream video.mp4 video.mp4.enc

  # Use a keyfile instead of a password prompt
  dexios encrypt --keyfile ./key.txt data.db data.db.enc

  # Encrypt and erase the plaintext afterward
  dexios encrypt --erase notes.txt notes.txt.enc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncrypt(common, cipher, args[0], args[1])
		},
	}

	defaults := loadDefaults()
	common.register(cmd.Flags(), defaults)
	cipher.register(cmd.Flags(), defaults)
	return cmd
}

func runEncrypt(common *commonFlags, cipher *cipherFlags, inputPath, outputPath string) error {
	log := common.logger()

	algorithm, err := cipher.resolveAlgorithm()
	if err != nil {
		return err
	}
	mode, err := cipher.resolveMode()
	if err != nil {
		return err
	}

	password, err := resolvePassword(common.keyfile, true, common.skip)
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeQuietly(in)

	out, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeQuietly(out)

	var w io.Writer = out
	if common.benchmark {
		w = io.Discard
	}

	var hasher *blake3.Hasher
	if cipher.hash && !common.benchmark {
		hasher = blake3.New(32, nil)
		w = io.MultiWriter(w, hasher)
	}

	counting := &countingWriter{w: w}

	start := time.Now()
	err = pipeline.Encrypt(in, counting, pipeline.EncryptRequest{
		Password:  password,
		Algorithm: algorithm,
		Mode:      mode,
	})
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	log.Info("encrypted file",
		logging.KeyPath, inputPath,
		logging.KeyAlgorithm, algorithm.String(),
		logging.KeyMode, mode.String(),
		logging.KeyBytesTotal, counting.n,
		logging.KeyDuration, elapsed.String(),
	)

	if cipher.hash && hasher != nil {
		fmt.Printf("BLAKE3: %x\n", hasher.Sum(nil))
	}
	if common.benchmark {
		rate := float64(counting.n) / elapsed.Seconds()
		fmt.Printf("encrypted %s in %s (%s)\n", humansize.Format(counting.n), elapsed, humansize.Rate(rate))
	}

	passes, doErase, err := common.resolveErase(loadDefaults())
	if err != nil {
		return err
	}
	if doErase && inputPath != "-" {
		if err := erase.File(inputPath, passes); err != nil {
			return fmt.Errorf("erase source: %w", err)
		}
		log.Info("erased source file", logging.KeyPath, inputPath, logging.KeyPasses, passes)
	}

	return nil
}

// countingWriter tracks bytes written so the CLI can report totals
// without the pipeline package needing to know about it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
