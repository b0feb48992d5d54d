package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifelink/node/cmd/lifelinksim/internal/historydb"
)

var flagRunID string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print a previously persisted run's message history",
	RunE:  printHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagRunID, "run-id", "", "run id to print (required)")
}

func printHistory(_ *cobra.Command, _ []string) error {
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	if flagRunID == "" {
		return fmt.Errorf("--run-id is required")
	}

	store, err := historydb.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening history db: %w", err)
	}
	defer store.Close()

	count, err := store.RunCount(flagRunID)
	if err != nil {
		return fmt.Errorf("counting history: %w", err)
	}
	if count == 0 {
		fmt.Println("no history for that run id")
		return nil
	}
	fmt.Printf("%d entries for run_id=%s\n", count, flagRunID)

	rows, err := store.Rows(flagRunID)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	for _, r := range rows {
		fmt.Printf("%s #%d %s peer=%s msg=%s vital=%v intent=%s urgency=%d body=%s\n",
			r.NodeID, r.Index, r.Direction, r.Peer, r.MsgID, r.Vital, r.Intent, r.Urgency, r.BodyHex)
	}
	return nil
}
