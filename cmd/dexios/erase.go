package main

import (
	"fmt"

	"github.com/postalsys/dexios-go/internal/erase"
	"github.com/spf13/cobra"
)

func eraseCmd() *cobra.Command {
	var passes int
	var recurse bool

	cmd := &cobra.Command{
		Use:   "erase <path>",
		Short: "Securely overwrite and delete a file, or a directory tree",
		Long: `erase overwrites a file with random data for the given number of
passes, truncates it, and removes it. This raises the cost of casual
recovery; it is not a guarantee against recovery on flash media or
copy-on-write filesystems.

path may be a directory with --recurse, in which case every regular file
under it is erased in place and the directory tree itself is left behind.
A symlink, whether passed directly or found while recursing, is skipped
rather than followed.

Example:
  dexios erase --passes 8 secret-notes.txt
  dexios erase --recurse ./old-project`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := erase.Path(args[0], passes, recurse); err != nil {
				return fmt.Errorf("erase %s: %w", args[0], err)
			}
			fmt.Printf("erased %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&passes, "passes", loadDefaults().ErasePasses, "number of random-overwrite passes")
	cmd.Flags().BoolVar(&recurse, "recurse", false, "erase every regular file under path if it is a directory")
	return cmd
}
