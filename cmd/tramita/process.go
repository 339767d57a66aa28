package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tramita/tramita/pkg/sei"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process transactions and queries",
}

var (
	createKind    string
	createSpec    string
	createParties []string
	createNote    string
	createAccess  string
	createBasis   string

	forwardKeepOpen bool
	forwardNotify   bool

	queryLimit int
)

var processCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new process",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			ref, err := client.CreateProcess(sei.CreateProcessOptions{
				Kind:              createKind,
				Specification:     createSpec,
				InterestedParties: createParties,
				Note:              createNote,
				AccessLevel:       sei.AccessLevel(createAccess),
				LegalBasis:        createBasis,
			})
			if err != nil {
				return err
			}
			if ref == nil {
				printFail("process type %q is not available in this unit", createKind)
				return nil
			}
			printOK("created process %s", ref.Number)
			printField("id", ref.ID)
			return nil
		})
	},
}

var processOpenCmd = &cobra.Command{
	Use:   "open <number>",
	Short: "Open a process and list its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			docs, err := client.ListDocuments(queryLimit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(docs)
			}
			printOK("process %s, %d document(s)", args[0], len(docs))
			for _, doc := range docs {
				fmt.Printf("  %s  %s\n", doc.ID, doc.Kind)
			}
			return nil
		})
	},
}

var processForwardCmd = &cobra.Command{
	Use:   "forward <number> <unit> [unit...]",
	Short: "Send a process to one or more units",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			ok, err := client.ForwardProcess(args[1:], sei.ForwardOptions{
				KeepOpen:      forwardKeepOpen,
				NotifyByEmail: forwardNotify,
			})
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the forward")
				return nil
			}
			printOK("forwarded %s to %s", args[0], strings.Join(args[1:], ", "))
			return nil
		})
	},
}

var processConcludeCmd = &cobra.Command{
	Use:   "conclude <number>",
	Short: "Conclude a process in the current unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			ok, err := client.ConcludeProcess()
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the conclusion")
				return nil
			}
			printOK("concluded %s", args[0])
			return nil
		})
	},
}

var processReopenCmd = &cobra.Command{
	Use:   "reopen <number>",
	Short: "Reopen a concluded process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			ok, err := client.ReopenProcess()
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the reopening")
				return nil
			}
			printOK("reopened %s", args[0])
			return nil
		})
	},
}

var processAssignCmd = &cobra.Command{
	Use:   "assign <number> <user>",
	Short: "Assign a process to a user of the current unit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			ok, err := client.AssignProcess(args[1])
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the assignment")
				return nil
			}
			printOK("assigned %s to %s", args[0], args[1])
			return nil
		})
	},
}

var processSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search processes by number or text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			processes, err := client.SearchProcesses(args[0], queryLimit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(processes)
			}
			if len(processes) == 0 {
				printFail("no process matched %q", args[0])
				return nil
			}
			for _, proc := range processes {
				fmt.Printf("  %s  %s  %s\n", proc.Number, proc.Kind, proc.Specification)
			}
			return nil
		})
	},
}

var processHistoryCmd = &cobra.Command{
	Use:   "history <number>",
	Short: "Show the movement history of a process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[0], func(client *sei.Client) error {
			entries, err := client.ListHistory(queryLimit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(entries)
			}
			for _, entry := range entries {
				fmt.Printf("  %s  %-20s  %s\n", entry.Date, entry.Unit, entry.Description)
			}
			return nil
		})
	},
}

func init() {
	processCreateCmd.Flags().StringVar(&createKind, "kind", "", "process type as shown in the portal picker (required)")
	processCreateCmd.Flags().StringVar(&createSpec, "spec", "", "process specification text (required)")
	processCreateCmd.Flags().StringSliceVar(&createParties, "party", nil, "interested party, repeatable")
	processCreateCmd.Flags().StringVar(&createNote, "note", "", "unit observation text")
	processCreateCmd.Flags().StringVar(&createAccess, "access", "", "access level: public, restricted or secret")
	processCreateCmd.Flags().StringVar(&createBasis, "legal-basis", "", "legal basis for restricted access")
	_ = processCreateCmd.MarkFlagRequired("kind")
	_ = processCreateCmd.MarkFlagRequired("spec")

	processForwardCmd.Flags().BoolVar(&forwardKeepOpen, "keep-open", false, "keep the process open in the current unit")
	processForwardCmd.Flags().BoolVar(&forwardNotify, "notify", false, "notify destination units by email")

	for _, cmd := range []*cobra.Command{processOpenCmd, processSearchCmd, processHistoryCmd} {
		cmd.Flags().IntVar(&queryLimit, "limit", 0, "cap the number of results (0 = all)")
	}

	processCmd.AddCommand(
		processCreateCmd,
		processOpenCmd,
		processForwardCmd,
		processConcludeCmd,
		processReopenCmd,
		processAssignCmd,
		processSearchCmd,
		processHistoryCmd,
	)
}
