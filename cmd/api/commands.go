package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/mcpServer"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file]",
		Short: "Index a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			rt, err := buildRuntime(cmd.Context(), appConfig)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.rag.Ingest(cmd.Context(), data, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			cmd.Printf("Indexed %s: %d chunks\n", filepath.Base(args[0]), n)
			return nil
		},
	}
}

func newAskCmd() *cobra.Command {
	var (
		session string
		stream  bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), appConfig)
			if err != nil {
				return err
			}
			defer rt.Close()

			if stream {
				frags, err := rt.rag.AnswerStream(cmd.Context(), session, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for frag, err := range frags {
					if err != nil {
						fmt.Fprintln(out)
						return err
					}
					fmt.Fprint(out, frag)
				}
				fmt.Fprintln(out)
				return nil
			}

			ans, err := rt.rag.Chat(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, ans)
			}
			cmd.Println(ans.Response)
			for _, s := range ans.Sources {
				cmd.Printf("  [%s #%d] score %.3f\n", s.Source, s.ChunkIndex, s.Score)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", config.DefaultSessionID, "conversation session id")
	cmd.Flags().BoolVar(&stream, "stream", false, "print the answer as it is generated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer with its context as JSON")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		session string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the messages of a session, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context(), appConfig)
			if err != nil {
				return err
			}
			defer rt.Close()

			msgs, err := rt.rag.History(cmd.Context(), session, limit)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				cmd.Println("No messages.")
				return nil
			}
			for _, m := range msgs {
				cmd.Printf("[%s] %s: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", config.DefaultSessionID, "conversation session id")
	cmd.Flags().IntVarP(&limit, "limit", "n", config.DefaultHistoryLimit, "maximum number of messages")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the document tools over MCP stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing
search_document, ask_document and chat_history.

The same tools are served over streamable HTTP at /mcp by "serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := buildRuntime(cmd.Context(), appConfig)
			if err != nil {
				return err
			}
			defer rt.Close()
			return mcpServer.NewServer(rt.rag).RunStdio(cmd.Context())
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
