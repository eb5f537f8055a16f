package cli

import (
	"fmt"
	"time"

	"ragbot/internal/chat"

	"github.com/spf13/cobra"
)

const recentCallLimit = 5

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload brochure documents (PDF, DOCX or plain text)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api().Upload(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("upload failed: %s", chat.ErrorText(err))
			}
			cmd.Printf("Corpus %s: %d of %d files uploaded\n", res.CorpusID, res.Successful, res.TotalFiles)
			for _, f := range res.Files {
				cmd.Printf("  ok    %s (%d bytes)\n", f.FileName, f.Size)
			}
			for _, e := range res.Errors {
				cmd.Printf("  error %s: %s\n", e.FileName, e.Error)
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API and show the active corpus and recent llm calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.api().Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %s", chat.ErrorText(err))
			}
			cmd.Printf("%s: %s\n", h.Service, h.Status)

			if info, err := a.api().Corpus(cmd.Context()); err != nil {
				cmd.Printf("corpus: %s\n", chat.ErrorText(err))
			} else {
				cmd.Printf("corpus: %s (%d files)\n", info.Corpus.CorpusID, len(info.Files))
				for _, f := range info.Files {
					cmd.Printf("  %s  %s  %.2f MB\n", f.FileName, f.MimeType, f.SizeMB())
				}
			}

			calls, err := a.api().Calls(cmd.Context(), recentCallLimit)
			switch {
			case err != nil:
				cmd.Printf("llm calls: %s\n", chat.ErrorText(err))
			case !calls.Enabled:
				cmd.Println("llm calls: not recorded by this registry backend")
			default:
				cmd.Printf("llm calls: last %d\n", len(calls.Calls))
				for _, c := range calls.Calls {
					status := c.Status
					if c.ErrorType != "" {
						status += " (" + c.ErrorType + ")"
					}
					cmd.Printf("  %s  %s/%s  %s  %dms\n", c.At.Local().Format(time.DateTime), c.Provider, c.Model, status, c.LatencyMS)
				}
			}
			return nil
		},
	}
}
