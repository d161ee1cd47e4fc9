package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AndrewLang/matrix-codex-flow/internal/chatlog"
)

func newThreadsCmd(opts *options) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "threads <project-id>",
		Short: "List a project's chat threads that hold messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			threads, err := store.ListChatThreads(args[0], count)
			if err != nil {
				return storeFailure(err)
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), threads)
			}
			out := cmd.OutOrStdout()
			if len(threads) == 0 {
				fmt.Fprintln(out, "No chat threads.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tUPDATED")
			for _, t := range threads {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Title, formatTime(t.UpdatedAt))
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "maximum number of threads")
	return cmd
}

func newMessagesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <thread-id>",
		Short: "Print the messages of a chat thread, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			thread, found, err := store.LoadChatThread(args[0])
			if err != nil {
				return storeFailure(err)
			}
			if !found {
				return userError(fmt.Errorf("chat thread %q not found", args[0]))
			}
			messages, err := store.ListChatMessages(thread.ID)
			if err != nil {
				return storeFailure(err)
			}
			if opts.jsonMode {
				return printJSON(cmd.OutOrStdout(), messages)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headingColor.Sprint(thread.Title))
			for _, m := range messages {
				who := roleColor.Sprint(m.Role)
				if m.Model != "" {
					who += " (" + m.Model + ")"
				}
				fmt.Fprintf(out, "\n[%s] %s\n%s\n", formatTime(m.CreatedAt), who, m.Content)
			}
			return nil
		},
	}
}

// streamEvent is one line of the event stream read by "record".
type streamEvent struct {
	Kind    string `json:"kind"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model"`
}

func newRecordCmd(opts *options) *cobra.Command {
	var threadID, title string
	cmd := &cobra.Command{
		Use:   "record <project-id>",
		Short: "Append an agent event stream to a chat thread",
		Long: `Read agent events from standard input, one JSON object per line, and
append message and error events to a chat thread as they arrive. Token and
done events are ignored, as are lines that are not JSON.

Example:
  echo '{"kind":"message","role":"user","content":"hi"}' | vibeflow record project-1 --title "Session"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rec := chatlog.NewRecorder(store, args[0], threadID, opts.logger)
			if err := rec.Begin(title); err != nil {
				return storeFailure(err)
			}

			recorded := 0
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
			for scanner.Scan() {
				var ev streamEvent
				if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
					continue
				}
				m, err := rec.Record(chatlog.Event{
					Kind:    chatlog.EventKind(ev.Kind),
					Role:    ev.Role,
					Content: ev.Content,
					Model:   ev.Model,
				})
				if err != nil {
					return storeFailure(err)
				}
				if m != nil {
					recorded++
				}
			}
			if err := scanner.Err(); err != nil {
				return sysError(fmt.Errorf("read events: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d messages in thread %s\n", recorded, rec.ThreadID())
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "thread id to append to (default: new thread)")
	cmd.Flags().StringVar(&title, "title", "", "thread title (default \"New chat\" for a new thread; an existing thread keeps its title)")
	return cmd
}
