package main

import (
	"github.com/da11an/tatl-sub000/internal/board"
	"github.com/spf13/cobra"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive board",
	Long:  `The board shows every task with its stage and follows the ledger live. Start and stop the clock, queue and hand off tasks without leaving it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return board.New(svc, st.Path(), cfg.Board.Refresh).Run()
	},
}
