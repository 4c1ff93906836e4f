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
)

func decryptCmd() *cobra.Command {
	common := &commonFlags{}

	cmd := &cobra.Command{
		Use:   "decrypt <input> <output>",
		Short: "Decrypt a file",
		Long: `Decrypt a file previously produced by "dexios encrypt". The algorithm,
mode and header version are all read from the file's own header; only
--keyfile, --skip, --benchmark, --erase and logging flags apply here.

Examples:
  dexios decrypt secret.txt.enc secret.txt
  dexios decrypt --keyfile ./key.txt data.db.enc data.db
  dexios decrypt --erase video.mp4.enc video.mp4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecrypt(common, args[0], args[1])
		},
	}

	common.register(cmd.Flags(), loadDefaults())
	return cmd
}

func runDecrypt(common *commonFlags, inputPath, outputPath string) error {
	log := common.logger()

	password, err := resolvePassword(common.keyfile, false, common.skip)
	if err != nil {
		return err
	}

	in, err := openSeekableInput(inputPath)
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
	counting := &countingWriter{w: w}

	start := time.Now()
	err = pipeline.Decrypt(in, counting, pipeline.DecryptRequest{Password: password})
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	log.Info("decrypted file",
		logging.KeyPath, inputPath,
		logging.KeyBytesTotal, counting.n,
		logging.KeyDuration, elapsed.String(),
	)

	if common.benchmark {
		rate := float64(counting.n) / elapsed.Seconds()
		fmt.Printf("decrypted %s in %s (%s)\n", humansize.Format(counting.n), elapsed, humansize.Rate(rate))
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
