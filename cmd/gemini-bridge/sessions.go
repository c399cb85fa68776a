// ABOUTME: Commands for prompts, sessions, messages, sends and transcript export
// ABOUTME: Output goes to the command's stdout so scripts can capture it; logs go to stderr

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/gemini-bridge/internal/export"
	"github.com/2389/gemini-bridge/internal/store"
)

func parseSessionID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", raw)
	}
	return id, nil
}

// printText writes s and ends it with a newline if it lacks one.
func printText(w io.Writer, s string) {
	fmt.Fprint(w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(w)
	}
}

func newPromptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <text>...",
		Short: "Run a one-off prompt without saving it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.invoker.RunPrompt(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printText(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, list and delete conversations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a session and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.store.CreateSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sessions, err := a.store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "(no sessions)")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED\tUPDATED")
			for _, s := range sessions {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name,
					s.CreatedAt.Local().Format("Jan 02 15:04"),
					s.UpdatedAt.Local().Format("Jan 02 15:04"))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Any integer is accepted; deleting an unassigned id is a no-op.
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			return a.conversation().DeleteSession(cmd.Context(), id)
		},
	})

	return cmd
}

func newMessageCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "List or add messages without running gemini",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <session-id>",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.store.GetSession(cmd.Context(), id); err != nil {
				return err
			}
			msgs, err := a.store.ListMessages(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gray := color.New(color.FgHiBlack)
			for _, m := range msgs {
				gray.Fprintf(out, "[%s] ", m.Timestamp.Local().Format("15:04:05"))
				authorColor(m).Fprint(out, m.Author)
				fmt.Fprint(out, ": ")
				printText(out, m.Text)
			}
			return nil
		},
	})

	var author string
	add := &cobra.Command{
		Use:   "add <session-id> <text>",
		Short: "Append a message to a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			msg, err := a.conversation().Record(cmd.Context(), id, args[1], author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
	add.Flags().StringVar(&author, "author", store.AuthorUser, "author tag stored with the message")
	cmd.AddCommand(add)

	return cmd
}

func authorColor(m *store.Message) *color.Color {
	if m.Role() == store.RoleUser {
		return color.New(color.FgCyan, color.Bold)
	}
	return color.New(color.FgGreen, color.Bold)
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <session-id> <prompt>...",
		Short: "Record a prompt in a session, run it, and record the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ex, err := a.conversation().Send(cmd.Context(), id, strings.Join(args[1:], " "))
			if ex != nil && ex.Reply != nil && err == nil {
				printText(cmd.OutOrStdout(), ex.Reply.Text)
			}
			return err
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session transcript",
		Long: "Export a session as markdown, txt or json. Without --out the transcript is\n" +
			"written to stdout. When --out is a directory the file is named session_<id>.<suffix>.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			// Reject bad formats before touching config or the database.
			if _, err := export.ParseFormat(format); err != nil {
				return err
			}
			a, err := opts.loadWithStore(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			content, suffix, err := export.New(a.store, a.logger).Export(cmd.Context(), id, format)
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			dest := outPath
			if info, err := os.Stat(outPath); err == nil && info.IsDir() {
				dest = filepath.Join(outPath, export.FileName(id, suffix))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			a.logger.Info("session exported", "session_id", id, "format", format, "path", dest)
			fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "markdown, txt or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "file or directory to write (default stdout)")
	return cmd
}
