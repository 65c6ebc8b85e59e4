package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdfchat/internal/console"
	"pdfchat/internal/controller"
	"pdfchat/internal/render"
)

func (a *app) headless(cmd *cobra.Command) (*controller.Controller, *console.Console) {
	var r render.Renderer = render.Plain{}
	if a.cfg.UI.Markdown {
		r = render.NewStyled(true, a.cfg.UI.MarkdownStyle, 100)
	}
	out := console.New(cmd.OutOrStdout(), r)
	return controller.New(a.client, out.Surfaces(), a.log), out
}

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF and show the fresh history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, out := a.headless(cmd)
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			ctrl.SubmitUpload(cmd.Context(), path)
			if out.Failed() {
				return errors.New("upload failed")
			}
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask a question about the uploaded PDF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _ := a.headless(cmd)
			ctrl.SubmitChatMessage(cmd.Context(), strings.Join(args, " "))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the server's chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _ := a.headless(cmd)
			ctrl.Start(cmd.Context())
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the server has its LLM API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.Status)
			return nil
		},
	}
}
