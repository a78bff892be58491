package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/cleanfire/internal/chat"
	"github.com/diogo/cleanfire/internal/models"
	"github.com/diogo/cleanfire/internal/render"
	"github.com/diogo/cleanfire/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the Clean Fire Grandmaster.

The conversation keeps its context for the whole session. Press Enter to send,
Alt+Enter for a new line, Ctrl+Y to copy the last reply and Esc to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(deps)
		},
	}
}

// runChat starts the session and hands it to the TUI. A session that fails
// to start still opens the screen, showing the error with input disabled.
func runChat(deps *Dependencies) error {
	env := setup(deps)
	defer env.close()

	state, streamer := chat.Start(deps.Starter)
	if !state.Ready() {
		env.logger.Error("session failed to initialize", "error", state.Err())
	}

	return deps.RunChat(state, streamer, tui.Options{
		ModelName:    models.DefaultModel.Name,
		Render:       render.OptionsFromConfig(env.cfg, 0),
		CopyOnFinish: env.cfg.CopyToClipboard,
		Logger:       env.logger,
	})
}
