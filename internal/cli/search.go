package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"impractical.co/blogster/internal/search"
	"impractical.co/blogster/internal/tui"
)

func newSearchCommand(a *app) *cobra.Command {
	var siteURL string
	var logFile string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search posts from the terminal",
		Long: `search loads the first twenty posts once and filters them as you type, the same
way the search box on the blog does. Logs go to --log-file, since the
terminal is taken by the search screen.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := openLogFile(logFile)
				if err != nil {
					return err
				}
				defer f.Close() //nolint:errcheck
				logOut = f
			}
			if err := a.setLogger(cmd, logOut); err != nil {
				return err
			}

			widget := search.NewWidget(a.client())
			model := tui.New(cmd.Context(), widget, siteURL)
			_, err := tea.NewProgram(model,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&siteURL, "site-url", "http://localhost:8080", "where post links in results point")
	cmd.Flags().StringVar(&logFile, "log-file", "", "file to append logs to")
	return cmd
}
