package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravanos/chatd/internal/config"
	"github.com/ravanos/chatd/internal/domain"
	"github.com/ravanos/chatd/internal/store"
)

// openSessionStore opens the on-disk store for inspection commands.
func openSessionStore() (*store.SQLiteSessionStore, func(), error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(paths.DatabasePath(cfg.Session), log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return store.NewSQLiteSessionStore(db), func() { db.Close() }, nil
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage stored chat sessions",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionDeleteCmd())
	cmd.AddCommand(newSessionSearchCmd())
	return cmd
}

func newSessionListCmd() *cobra.Command {
	var (
		user  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openSessionStore()
			if err != nil {
				return err
			}
			defer closeStore()

			sessions, err := st.ListSessions(cmd.Context(), user, limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %-30s  messages=%d  updated=%s\n",
					s.ID, truncateTitle(s.Title), s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", domain.DefaultOwnerID, "owner whose sessions to list")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultSessionLimit, "maximum number of sessions")
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openSessionStore()
			if err != nil {
				return err
			}
			defer closeStore()

			sess, err := st.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s - %s (owner %s)\n\n", sess.ID, sess.Title, sess.OwnerID)

			msgs, err := st.Messages(cmd.Context(), sess.ID, limit)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), m.Role, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", store.DefaultMessageLimit, "maximum number of messages")
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openSessionStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := st.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		},
	}
}

func newSessionSearchCmd() *cobra.Command {
	var (
		user  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search message content across sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openSessionStore()
			if err != nil {
				return err
			}
			defer closeStore()

			results, err := st.SearchMessages(cmd.Context(), args[0], user, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			for _, m := range results {
				fmt.Printf("%s  [%s] %s\n", m.SessionID, m.Role, truncateTitle(m.Content))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", domain.DefaultOwnerID, "owner whose sessions to search")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultSearchLimit, "maximum number of results")
	return cmd
}

func truncateTitle(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
