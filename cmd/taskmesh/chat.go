package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

func newChatCmd(configFile *string) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive terminal session",
		Long:  "chat reads messages from stdin and streams routing decisions and specialist replies to the terminal. Commands: /reset, /status, /quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			app, err := wireApp(cfg, logging.NoOpLogger{})
			if err != nil {
				return err
			}
			defer app.Close()

			prompt := color.New(color.FgCyan, color.Bold)
			routing := color.New(color.FgYellow)
			reply := color.New(color.FgGreen)
			errC := color.New(color.FgRed)

			fmt.Println("taskmesh chat; /reset clears the conversation, /status shows specialists, /quit exits.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				prompt.Print("you> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())

				switch {
				case line == "":
					continue
				case line == "/quit", line == "/exit":
					return nil
				case line == "/reset":
					if err := app.mesh.Reset(cmd.Context(), threadID); err != nil {
						errC.Println("reset failed:", err)
						continue
					}
					fmt.Println("conversation cleared")
					continue
				case line == "/status":
					raw, err := json.MarshalIndent(app.mesh.Status(), "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(raw))
					continue
				}

				events, err := app.mesh.InvokeStream(cmd.Context(), threadID, line)
				if err != nil {
					errC.Println("error:", err)
					continue
				}
				for ev := range events {
					switch ev.Type {
					case core.EventRouting:
						routing.Printf("[routed to %s (%s)]\n", ev.Specialist, ev.TaskKind)
					case core.EventMessage:
						reply.Printf("%s> %s\n", ev.Author, ev.Content)
					case core.EventError:
						errC.Println("error:", ev.Error)
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "cli", "conversation id for this session")
	return cmd
}
