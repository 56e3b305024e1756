package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/config"
	"github.com/dandytbermillo/annotation-backup-sub000/internal/history"
)

// sessionsCmd lists the stored chat sessions with their message counts.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored chat sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		store, err := history.Open(cfg.History.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No stored sessions.")
			return nil
		}

		counts := make([]int, len(sessions))
		var g errgroup.Group
		g.SetLimit(4)
		for i, sess := range sessions {
			g.Go(func() error {
				n, err := store.CountMessages(sess.SessionID)
				if err != nil {
					return err
				}
				counts[i] = n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("%-38s %-20s %8s %8s\n", "SESSION", "LAST ACTIVE", "TURNS", "MESSAGES")
		for i, sess := range sessions {
			fmt.Printf("%-38s %-20s %8d %8d\n",
				sess.SessionID,
				sess.LastActiveAt.Format("2006-01-02 15:04:05"),
				sess.TurnCount,
				counts[i],
			)
		}
		return nil
	},
}
