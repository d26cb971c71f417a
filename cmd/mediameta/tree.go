package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/mediameta/internal/cli"
	"github.com/fpang/mediameta/internal/videometa"
)

var treeDepthFlag int

var treeCmd = &cobra.Command{
	Use:   "tree FILE",
	Short: "Print the atom tree of a file",
	Long: `Print one line per atom with its type, offset and length. Only container
atoms (moov, trak, mdia, ...) are expanded.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().IntVar(&treeDepthFlag, "depth", 0, "Maximum depth to expand (0 = unlimited)")
}

func runTree(cmd *cobra.Command, args []string) error {
	path := cli.ExpandPath(args[0])

	dec, err := videometa.Open(path)
	if err != nil {
		return err
	}
	defer dec.Close()

	if err := dec.Tree().Dump(cmd.OutOrStdout(), treeDepthFlag); err != nil {
		return err
	}

	log.Debug().
		Str("path", path).
		Int("atoms_scanned", dec.AtomsScanned()).
		Msg("Atom tree printed")
	return nil
}
