package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tramita/tramita/pkg/sei"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Signature block management",
}

var (
	blockUnits    []string
	blockSignRole string
)

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signature blocks visible to the current unit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			blocks, err := client.ListSignatureBlocks()
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(blocks)
			}
			if len(blocks) == 0 {
				printFail("no signature blocks")
				return nil
			}
			for _, block := range blocks {
				fmt.Printf("  %s  %-40s  %d document(s)\n", block.ID, block.Description, block.DocumentCount)
			}
			return nil
		})
	},
}

var blockCreateCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Create a signature block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			id, err := client.CreateSignatureBlock(args[0], blockUnits)
			if err != nil {
				return err
			}
			printOK("created block %s", id)
			return nil
		})
	},
}

var blockAddCmd = &cobra.Command{
	Use:   "add <block-id> <process-number> <document-id>",
	Short: "Add a document to a signature block",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProcess(args[1], func(client *sei.Client) error {
			ok, err := client.OpenDocument(args[2])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("document %s not found in process %s", args[2], args[1])
			}

			added, err := client.AddDocumentToBlock(args[0])
			if err != nil {
				return err
			}
			if !added {
				printFail("portal did not confirm the inclusion")
				return nil
			}
			printOK("added document %s to block %s", args[2], args[0])
			return nil
		})
	},
}

var blockPublishCmd = &cobra.Command{
	Use:   "publish <block-id>",
	Short: "Release a block to its configured units",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			ok, err := client.PublishSignatureBlock(args[0])
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the release")
				return nil
			}
			printOK("released block %s", args[0])
			return nil
		})
	},
}

var blockSignCmd = &cobra.Command{
	Use:   "sign <block-id>",
	Short: "Sign every document in a block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(client *sei.Client) error {
			password := os.Getenv("TRAMITA_SIGN_PASSWORD")
			if password == "" {
				password = loadedConfig.Password
			}
			ok, err := client.SignBlock(args[0], password, blockSignRole)
			if err != nil {
				return err
			}
			if !ok {
				printFail("portal did not confirm the signatures")
				return nil
			}
			printOK("signed block %s", args[0])
			return nil
		})
	},
}

func init() {
	blockCreateCmd.Flags().StringSliceVar(&blockUnits, "unit", nil, "unit to release the block to, repeatable")
	blockSignCmd.Flags().StringVar(&blockSignRole, "role", "", "signing role when the account holds more than one")

	blockCmd.AddCommand(blockListCmd, blockCreateCmd, blockAddCmd, blockPublishCmd, blockSignCmd)
}
