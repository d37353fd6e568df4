package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfrag/internal/adapters/driving/tui"
)

var chatMMR bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatMMR, "mmr", false, "diversify retrieval with maximal marginal relevance")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	callerID, err := resolveUserID(cmd.Context())
	if err != nil {
		return err
	}

	model := tui.New(questionService, callerID, askOptions(0, chatMMR))
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
